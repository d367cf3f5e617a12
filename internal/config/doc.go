// Package config loads the gauge-reader YAML configuration.
//
// One file describes a single gauge installation: the calibration profile
// (angles in degrees, dead-zone regions and an optional stencil image) plus
// the settings of the watcher, archive, publisher and review front-end.
// Anything the file omits keeps the value from DefaultConfig, which matches
// the plant's 0-120 gauge.
//
// # Example
//
//	profile:
//	  name: boiler
//	  width: 500
//	  height: 500
//	  reference_axis_deg: 90
//	  clockwise: true
//	  control_points:
//	    - {angle_deg: 225, value: 0}
//	    - {angle_deg: 497, value: 120}
//	  regions:
//	    - {type: ring, x: 250, y: 250, inner: 225}
//	  mask_file: mask.png
//	archive:
//	  dir: /var/lib/gauge/archive
//	publish:
//	  broker: tcp://localhost:1883
//	  topic: gauge/boiler
//	  threshold: 25
//
// # Environment
//
// GAUGE_CONFIG names the file when no path is given. GAUGE_LOG_LEVEL,
// GAUGE_MQTT_BROKER, GAUGE_MINIO_ACCESS_KEY and GAUGE_MINIO_SECRET_KEY
// override the matching settings after the file is read.
package config
