package document

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"fidelis/pkg/domain"
)

// BuildFileName generates the collision-resistant stored name:
// {type}_{bondID}_{unix timestamp}_{sanitized original}.
func BuildFileName(docType domain.DocumentType, bondID domain.BondID, originalName string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%d_%s", docType, bondID.String(), now.Unix(), SanitizeName(originalName))
}

// SanitizeName reduces an uploaded file name to a safe segment: the base
// name with spaces collapsed to dashes and underscores dropped, so the
// stored name's underscore-delimited prefix stays parseable.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "_", "-")
	if name == "" || name == "." {
		name = "file"
	}
	return name
}

// CleanDisplayName strips the type_bondID_timestamp_ prefix to recover the
// human-meaningful name. Used for display and for the keep-set comparison in
// Reconcile. Names without the prefix convention pass through unchanged.
func CleanDisplayName(fileName string) string {
	parts := strings.SplitN(fileName, "_", 4)
	if len(parts) != 4 {
		return fileName
	}
	if _, err := domain.ParseDocumentType(parts[0]); err != nil {
		return fileName
	}
	if _, err := strconv.ParseInt(parts[2], 10, 64); err != nil {
		return fileName
	}
	return parts[3]
}
