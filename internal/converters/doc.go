// Package converters turns source files into text the topic engine can
// segment.
//
// Each sub-package handles one family of formats and keeps document
// headings as markdown ATX headings ("# ", "## "), so heading-based topic
// detection works whatever the input format was. The Registry selects a
// converter by file extension.
package converters
