// Package archive stores every processed capture under a name that encodes
// its value, timestamp and quality label:
//
//	<prefix>_<value>_<YYYYMMDD_HHMMSS>_<LABEL>.jpg
//
// where value has two decimals or is "na", e.g.
// latest_50.00_20261015_101500_GOOD.jpg. The stored image is the original
// frame with the detected needle, the value and a border in the label's
// colour drawn on top.
//
// Dir writes to a local directory and Minio to an S3-compatible bucket;
// Multi fans one reading out to several sinks.
package archive
