package meta

import (
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

// ReadEXIFDescription 直接从 JPEG 的 EXIF 段读 ImageDescription。
// 没有 EXIF 段时返回错误（上层回退 exiftool）；有 EXIF 但没有该字段返回空串。
func ReadEXIFDescription(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return "", err
	}

	tag, err := x.Get(exif.ImageDescription)
	if err != nil {
		return "", nil
	}
	s, err := tag.StringVal()
	if err != nil {
		return "", nil
	}
	return s, nil
}
