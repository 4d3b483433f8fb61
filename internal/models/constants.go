package models

// Supported answer languages.
const (
	LanguageIndonesian = "id"
	LanguageEnglish    = "en"
)

// Categories maps knowledge-base directory names to display names.
var Categories = map[string]string{
	"sejarah":  "History",
	"filosofi": "Philosophy",
	"tokoh":    "Characters",
	"kostum":   "Costumes",
	"tarian":   "Dance",
	"festival": "Festivals",
	"umkm":     "Local Products",
	"faq":      "FAQ",
}

// CategoryOrder fixes the processing order of category directories.
var CategoryOrder = []string{
	"sejarah", "filosofi", "tokoh", "kostum", "tarian", "festival", "umkm", "faq",
}

// Metadata keys stored alongside each vector in the collection.
const (
	MetaTitle      = "title"
	MetaCategory   = "category"
	MetaLanguage   = "language"
	MetaKeywords   = "keywords"
	MetaWordCount  = "word_count"
	MetaSourceFile = "source_file"
)
