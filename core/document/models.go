package document

type (
	// SourceFile is an upload as the client refers to it. Read-only here.
	SourceFile struct {
		RelPath     string // relative to the upload root, may start with "/"
		ContentType string // declared by the uploader, free text
	}

	// Artifact is the PDF derived from a SourceFile. Its path is a pure function of
	// the source path, so its presence on disk is the cache.
	Artifact struct {
		Source string // absolute
		Dir    string // absolute
		Path   string // absolute
	}

	// PreviewPaths is what clients get back: what to show inline and what to download.
	PreviewPaths struct {
		DisplayPath    string `json:"display_path"`
		DownloadPath   string `json:"download_path"`
		IsPDFConverted bool   `json:"is_pdf_converted"`
	}

	PreviewRequest struct {
		Path        string `query:"path" json:"path" validate:"required,relpath"`
		ContentType string `query:"content_type" json:"content_type" validate:"max=255"`
	}
)

func unconverted(rel string) PreviewPaths {
	return PreviewPaths{DisplayPath: rel, DownloadPath: rel}
}
