package hclutil

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/opgrid/internal/engineerr"
)

// ErrorDiag builds an error-severity diagnostic.
func ErrorDiag(subject *hcl.Range, summary, detail string) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
		Subject:  subject,
	}
}

// ConfigError turns diagnostics into a configuration error, or returns nil
// when they carry no errors.
func ConfigError(diags hcl.Diagnostics, format string, args ...any) error {
	if !diags.HasErrors() {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", engineerr.ErrConfiguration, fmt.Sprintf(format, args...), diags)
}

// FindUniqueBlock returns the only block of the given type, or nil when
// there is none. More than one block of that type is reported.
func FindUniqueBlock(blocks hcl.Blocks, name string) (*hcl.Block, hcl.Diagnostics) {
	var found *hcl.Block
	var diags hcl.Diagnostics

	for _, block := range blocks {
		if block.Type == name {
			if found != nil {
				diags = append(diags, ErrorDiag(&block.DefRange,
					"Duplicate \""+name+"\" block",
					"Only one \""+name+"\" block is allowed."))
			}
			found = block
		}
	}

	return found, diags
}
