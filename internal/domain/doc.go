// Package domain models the datalogger feeds published by the landslide
// monitoring station network and the summary metrics derived from them.
//
// # Data Source
//
// Each station runs a datalogger that exports TOA5-style delimited text
// tables. The network file server publishes the most recent export of each
// table under a fixed directory, one file per station and cadence:
//
//	<station>_t5minute.dat   five-minute table (soil water content, saturation)
//	<station>_t60min.dat     hourly table (rainfall, battery, temperature)
//
// The station id is the part of the file name before the first underscore,
// lowercased. A few files keep the source casing ("Yabucoa_t60min.dat").
//
// # File Layout
//
// Every file has the same shape:
//
//	line 0   environment line (format, station, logger model, program)
//	line 1   column names, quoted: "TIMESTAMP","RECORD","Rain_mm_Tot",...
//	line 2   units
//	line 3   processing (Smp, Tot, Avg)
//	line 4+  data rows, oldest first
//
// Only line 1 and the final line are used for field extraction. Header
// strings are kept verbatim, quote glyphs included, so metric lookups match
// on the quoted form ("Rain_mm_Tot" with its quotes).
//
// # Derived Metrics
//
//	12hr_rain_mm_total    sum of "Rain_mm_Tot" over the last 12 lines, %.2f
//	soil_saturation       latest water content / station reference max, "<n>%"
//	avg_soil_saturation   mean of "Soil_Saturation" over all lines, %.2f
//
// Unusable input never aborts a feed: rainfall falls back to "0.00" and
// saturation to "N/A". Internally each metric is a Measurement carrying the
// reason it is unavailable, and the sentinel strings only appear when the
// metric is written into a station's Fields.
package domain
