package services

import "couponhub/internal/assets"

// LogoAction selects how an update treats the store logo.
type LogoAction int

const (
	LogoKeep LogoAction = iota
	LogoReplace
	LogoRemove
)

// LogoUpdate is resolved once per request from the payload: a new file
// replaces the logo, an explicit null removes it, anything else keeps it.
type LogoUpdate struct {
	Action LogoAction
	File   assets.Upload
}

func KeepLogo() LogoUpdate                     { return LogoUpdate{Action: LogoKeep} }
func RemoveLogo() LogoUpdate                   { return LogoUpdate{Action: LogoRemove} }
func ReplaceLogo(file assets.Upload) LogoUpdate { return LogoUpdate{Action: LogoReplace, File: file} }

// ImageAction selects how an update treats the product images.
type ImageAction int

const (
	ImagesKeep ImageAction = iota
	ImagesReplace
	ImagesClear
)

// ImageUpdate replaces or clears the whole image list; images are never
// edited individually.
type ImageUpdate struct {
	Action ImageAction
	Files  []assets.Upload
}

func KeepImages() ImageUpdate  { return ImageUpdate{Action: ImagesKeep} }
func ClearImages() ImageUpdate { return ImageUpdate{Action: ImagesClear} }

// ReplaceImages swaps the image list for files. An empty list keeps the
// current images.
func ReplaceImages(files []assets.Upload) ImageUpdate {
	if len(files) == 0 {
		return KeepImages()
	}
	return ImageUpdate{Action: ImagesReplace, Files: files}
}
