// Package jbig2 decodes JBIG2 bi-level image segment streams embedded in
// PDF files (ISO/IEC 14492 / ITU-T T.88, the PDF-relevant subset). It
// covers segment-stream parsing, the MQ arithmetic coder's integer and
// symbol-ID decoding procedures, Huffman table construction (standard
// tables B.1-B.15 and custom tables), generic and generic-refinement
// region decoding, symbol dictionaries, text regions, pattern
// dictionaries, halftone regions, and the MMR (Group 4) fallback path.
//
// Generic-refinement regions are reachable only as a sub-procedure of
// symbol dictionaries and text regions, never as a standalone top-level
// segment — PDF producers never emit refinement as a page-level segment,
// and this package does not support that case.
package jbig2
