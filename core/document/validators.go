package document

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sanggar/core"
)

func (pr *PreviewRequest) Clean() {
	pr.Path = core.CleanString(pr.Path)
	pr.ContentType = core.CleanString(pr.ContentType)
}

func (pr PreviewRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(pr)
}

// Source is the upload the request refers to.
func (pr PreviewRequest) Source() SourceFile {
	return SourceFile{RelPath: pr.Path, ContentType: pr.ContentType}
}
