package codec

import "strings"

// imageExtensions mirrors ImgIsImageFile in the source: recognized by
// extension only, not content sniffing, since the synchronizer needs to
// decide whether to even attempt a decode before opening the file.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".dib":  true,
}

// IsImageFile reports whether name has a recognized image extension.
func IsImageFile(name string) bool {
	dot := strings.LastIndex(name, ".")
	if dot < 0 {
		return false
	}
	return imageExtensions[strings.ToLower(name[dot:])]
}
