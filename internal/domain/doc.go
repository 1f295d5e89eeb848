// Package domain models City of Chicago traffic crash records.
//
// # Data Source
//
// Crash records come from the Chicago Data Portal "Traffic Crashes - Crashes"
// export, split into a fixed number of CSV partitions (crash_data_1.csv through
// crash_data_N.csv). Every partition carries the same header. Column names are
// the portal's upper-case names, e.g. CRASH_DATE, WEATHER_CONDITION, DAMAGE.
//
// # Source Data Conventions
//
// Crash date format:
//
//	The portal exports "MM/DD/YYYY hh:mm:ss AM" in local Chicago time, e.g.
//	"09/05/2023 07:05:00 PM". Older extracts use ISO-8601 without a zone,
//	e.g. "2023-09-05T19:05:00.000". Both are parsed as wall-clock times in UTC
//	so that hour and month buckets match the source text. Unparsable dates
//	leave the derived date fields nil; see [NormalizeRecord].
//
// Damage encoding (differs between yearly extracts):
//
//	Bucketed labels:
//	  - "$500 OR LESS"     → 250  (low-end estimate)
//	  - "$501 - $1,500"    → 1000 (integer mean of the two bounds)
//	  - "OVER $1,500"      → 2000 (high-end estimate)
//	Exact amounts:
//	  - "$1,234.50"        → 1234 (currency symbol and separators stripped, truncated)
//	Anything else, including empty text, is 0.
//
//	The representation is detected before parsing. "OVER" wins over "OR LESS",
//	which wins over a hyphen; see [DetectDamageFormat].
//
// Damage bands:
//
//	  ≤ 500 "$0 - $500" | ≤ 1000 "$501 - $1,000" | ≤ 1500 "$1,001 - $1,500" | else "Over $1,500"
//
// Severity selector (over INJURIES_TOTAL):
//
//	  Minor: = 0 | Moderate: 1–3 | Severe: > 0 | All: no predicate
//
//	Severe deliberately includes Moderate. A stricter "more than three injuries"
//	reading exists in older dashboards and is not used here.
package domain
