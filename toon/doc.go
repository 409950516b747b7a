// Package toon implements TOON-TAB, a line-oriented text codec for
// typed tabular datasets.
//
// TOON-TAB is designed to be:
//   - Human-readable and diff-friendly (plain text, one row per line)
//   - Self-describing (schema metadata embedded in the same file)
//   - Lossless for type distinctions that plain CSV destroys:
//     numeric vs. text-that-looks-numeric, missing number vs. empty
//     string, calendar dates vs. timestamps
//   - Strictly flat (exactly one table per file, no nesting)
//
// # File Layout
//
// A file is an indented metadata block followed by a header line and
// comma-delimited data rows:
//
//	_metadata:
//	  source: sales extract
//	  schema_name: ORDERS
//	  columns: 3
//	  rows: 2
//	  column_info:
//	    id:
//	      type: numeric
//	    name:
//	      type: character
//	      length: 40
//	    shipped:
//	      type: datetime
//	      format: DATETIME20.
//	ORDERS[2]{id,name,shipped}:
//	  1,"Ace, Inc.",15Nov2025:14:30:45
//	  2,"",16Nov2025:09:00:00
//
// Metadata keys sit at two spaces of indent, column names at four,
// column attributes at six. The header line is recognized
// structurally, by containing all four of '[', ']', '{' and '}'.
//
// # Column Kinds
//
// Every column carries one of four kinds: numeric, character, date,
// datetime. Numeric cells render as minimal decimal text and an
// absent value as an empty field. Character cells go through the
// quoting dialect below; an empty character value renders as "" so it
// stays distinguishable from a missing number. Dates render as
// YYYY-MM-DD, timestamps as DDMonYYYY:HH:MM:SS.
//
// A numeric column whose display format name contains DATETIME or
// DTDATE is reclassified as datetime on the wire; one containing DATE
// is reclassified as date. This is a substring heuristic, see
// Column.EffectiveKind.
//
// # Quoting Dialect
//
// A character value is quote-wrapped when it contains a comma, a
// double quote, a line break, or is empty. Inside quotes, backslash,
// quote, line feed and carriage return become \\ , \" , \n and \r
// (two-character sequences). Real newlines therefore never survive
// into the output, which is what guarantees one row per physical
// line.
//
// # Decode Tolerance
//
// Structural problems (no header line, declared column count not
// matching the parsed column blocks) abort a decode. Row-level
// problems (unparsable field, broken quoting) are collected per line
// in a DecodeResult by default, or abort on first occurrence in
// strict mode.
package toon
