// Package publish sends gauge readings and threshold alerts to a message
// broker.
//
// Only good readings are ever published. A reading outside the plausibility
// band is held back and logged as suspicious. An alert fires the first time
// a good reading exceeds the threshold and then stays latched until a good
// reading at or below the threshold re-arms it, so a gauge that sits above
// the limit produces one alert per excursion rather than one per capture.
//
// Messages go to two topics:
//
//	<topic>/value   every published reading, retained
//	<topic>/alert   one message per excursion
package publish
