package linkbin

import (
	"path"
	"regexp"
	"strconv"
	"strings"
)

// ContentKind tags what a link's content column holds: a target URL, inline
// text, or the public URL of a stored blob.
type ContentKind string

const (
	KindURL      ContentKind = "url"
	KindText     ContentKind = "text"
	KindImage    ContentKind = "image"
	KindDocument ContentKind = "document"
)

func (k ContentKind) Valid() bool {
	switch k {
	case KindURL, KindText, KindImage, KindDocument:
		return true
	}
	return false
}

// Stored reports whether the content lives in the blob store.
func (k ContentKind) Stored() bool {
	return k == KindImage || k == KindDocument
}

// MaxFileSize is the upload cap for image and document content.
const MaxFileSize = 10 << 20

var allowedExtensions = map[ContentKind][]string{
	KindImage:    {"jpg", "jpeg", "png"},
	KindDocument: {"pdf", "docx"},
}

var mimeByExtension = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"pdf":  "application/pdf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"txt":  "text/plain",
}

// NormalizeURL prepends http:// when the payload has no scheme, mirroring
// what users paste ("example.com").
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "http://" + raw
	}
	return raw
}

func fileExtension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

func extensionAllowed(kind ContentKind, ext string) bool {
	for _, a := range allowedExtensions[kind] {
		if a == ext {
			return true
		}
	}
	return false
}

// MimeForFilename maps a filename to a content type by extension.
func MimeForFilename(name string) string {
	if m, ok := mimeByExtension[fileExtension(name)]; ok {
		return m
	}
	return "application/octet-stream"
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeFilename strips path components and characters that are unsafe in
// a filesystem name or a storage key.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	return name
}

// BlobKey builds the storage key for an upload: {owner}/{code}_{filename}.
// The code prefix makes the original filename recoverable on download.
func BlobKey(ownerID int64, code, filename string) string {
	return strconv.FormatInt(ownerID, 10) + "/" + code + "_" + SanitizeFilename(filename)
}

// OriginalFilename recovers the uploaded filename from a blob key by
// stripping the "{code}_" prefix off the key's base name.
func OriginalFilename(key, code string) string {
	base := path.Base(key)
	name := strings.TrimPrefix(base, code+"_")
	name = SanitizeFilename(name)
	if name == "" {
		name = base
	}
	return name
}
