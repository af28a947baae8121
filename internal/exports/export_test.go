package exports

var PDFSafe = pdfSafe
