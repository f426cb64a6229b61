/*
	Project: Sanggar Belajar - document previews for the LMS uploads
	Target: Word uploads (.doc, .docx) shown as PDF in the browser
*/
package sanggar

/*
TODO: legacy .doc text extraction for the fallback renderer (today: unsupported_format, soffice only)
TODO: janitor cmd removing PDFs whose Word source was deleted
TODO: auth on /v1/files/* once the LMS session cookie is shared with this service
*/
