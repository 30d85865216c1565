package ecosys

// RomExtensions is the recognized ROM file extension set (lower case,
// leading dot).
var RomExtensions = map[string]struct{}{
	".zip": {}, ".7z": {}, ".rar": {}, ".chd": {}, ".cue": {}, ".iso": {},
	".bin": {}, ".img": {}, ".mdf": {}, ".pbp": {}, ".nes": {}, ".unf": {},
	".sfc": {}, ".smc": {}, ".fig": {}, ".gba": {}, ".gb": {}, ".gbc": {},
	".nds": {}, ".3ds": {}, ".n64": {}, ".z64": {}, ".v64": {}, ".sms": {},
	".gg": {}, ".gen": {}, ".md": {}, ".32x": {}, ".a26": {}, ".a78": {},
	".pce": {}, ".sg": {}, ".ngp": {}, ".ngc": {}, ".ws": {}, ".wsc": {},
	".lnx": {}, ".m3u": {},
}

// AssetExtensions is the recognized media file extension set.
var AssetExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".webp": {}, ".gif": {}, ".bmp": {},
	".mp4": {}, ".mkv": {}, ".avi": {}, ".mov": {},
	".pdf": {}, ".cbz": {}, ".cbr": {},
}

// AssetDirectoryHints names directories that hold media rather than ROMs.
var AssetDirectoryHints = map[string]struct{}{
	"images": {}, "videos": {}, "manuals": {},
	"downloaded_images": {}, "downloaded_videos": {}, "downloaded_media": {},
	"media": {}, "thumbnails": {}, "screenshots": {}, "covers": {},
	"miximages": {}, "3dboxes": {}, "backcovers": {}, "titlescreens": {},
	"marquees": {}, "fanart": {}, "wheel": {}, "boxart": {}, "snaps": {},
	"named_boxarts": {}, "named_snaps": {}, "named_titles": {}, "imgs": {},
}

// IsRomExtension reports whether ext (lower case, with dot) is a ROM type.
func IsRomExtension(ext string) bool {
	_, ok := RomExtensions[ext]
	return ok
}

// IsAssetExtension reports whether ext (lower case, with dot) is a media type.
func IsAssetExtension(ext string) bool {
	_, ok := AssetExtensions[ext]
	return ok
}

// IsAssetDirectory reports whether a directory name (lower case) is a known
// media folder.
func IsAssetDirectory(name string) bool {
	_, ok := AssetDirectoryHints[name]
	return ok
}
