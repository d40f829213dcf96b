package codec

// Registers the JPEG decoder with image.Decode, alongside PNG (thumb.go) and
// GIF (thumb.go) — the three formats ImgLoadGd recognized in the source,
// minus WBMP, which Go's standard library doesn't implement.
import _ "image/jpeg"
