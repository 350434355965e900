package domain

import "strings"

// StyleID identifies an entry of the style catalog.
type StyleID string

const (
	StyleRenaissance StyleID = "renaissance"
	StyleWatercolor  StyleID = "watercolor"
	StyleChinese     StyleID = "chinese"
	StyleComic       StyleID = "comic"
	StylePhotography StyleID = "photography"
	StyleCyberpunk   StyleID = "cyberpunk"
	StyleAnime       StyleID = "anime"
	StyleManga       StyleID = "manga"
	Style3D          StyleID = "3d"
	// StyleCustom carries no canned prompt; the user supplies the text.
	StyleCustom StyleID = "custom"
)

// StyleOption describes one selectable style.
type StyleOption struct {
	ID          StyleID `json:"id"`
	Label       string  `json:"label"`
	Icon        string  `json:"icon"`
	Description string  `json:"description"`
	Prompt      string  `json:"prompt"`
}

// IsCustom reports whether the option is the custom sentinel.
func (s StyleOption) IsCustom() bool {
	return s.ID == StyleCustom
}

var styleCatalog = []StyleOption{
	{
		ID:          StyleRenaissance,
		Label:       "Renaissance",
		Icon:        "🏛️",
		Description: "Classical oil painting, dramatic light",
		Prompt:      "Transform this image into a classic Renaissance oil painting. Use dramatic chiaroscuro, rich earthy textures and realistic features reminiscent of Leonardo da Vinci or Raphael. Preserve the original composition.",
	},
	{
		ID:          StyleWatercolor,
		Label:       "Watercolor",
		Icon:        "🎨",
		Description: "Soft edges, bleeding color",
		Prompt:      "Transform this image into a delicate watercolor painting. Use soft edges, subtle color bleeding, visible paper texture and artistic brush strokes. Colors should feel vibrant and translucent.",
	},
	{
		ID:          StyleChinese,
		Label:       "Ink Painting",
		Icon:        "🏮",
		Description: "Traditional freehand ink, zen negative space",
		Prompt:      "Transform this image into a traditional Chinese ink wash painting. Use expressive black ink strokes, varying ink density, an elegant composition and the soft texture of rice paper.",
	},
	{
		ID:          StyleComic,
		Label:       "American Comic",
		Icon:        "💥",
		Description: "Bold lines, bright highlights",
		Prompt:      "Reimagine this image as a classic American superhero comic book illustration. Use heavy black outlines, dramatic shadows, halftone patterns and vibrant primary colors.",
	},
	{
		ID:          StylePhotography,
		Label:       "Editorial Photo",
		Icon:        "📸",
		Description: "Professional texture, cinematic lighting",
		Prompt:      "Transform this image into a high-end professional photography masterpiece. Enhance the details so it looks like a National Geographic or editorial fashion shoot. Use shallow depth of field, beautiful bokeh and professional studio lighting.",
	},
	{
		ID:          StyleCyberpunk,
		Label:       "Cyberpunk",
		Icon:        "🌃",
		Description: "Neon glow, future tech",
		Prompt:      "Redesign this image with a cyberpunk aesthetic. Add glowing pink, blue and purple neon lights. Blend in high-tech interface elements, a futuristic city atmosphere and dark, moody, high-contrast tones.",
	},
	{
		ID:          StyleAnime,
		Label:       "Anime Film",
		Icon:        "🌸",
		Description: "Fresh and healing, cinematic anime",
		Prompt:      "Convert this into a high-quality modern anime style, similar to a Makoto Shinkai film. Use bright vivid colors, detailed skies and backgrounds, clean line art and an emotional cinematic atmosphere.",
	},
	{
		ID:          StyleManga,
		Label:       "Manga",
		Icon:        "✨",
		Description: "Japanese 2D, cel shading",
		Prompt:      "Redraw this in a clean 2D manga illustration style. Use bold outlines, cel shading and distinctive anime eyes and expressions.",
	},
	{
		ID:          Style3D,
		Label:       "3D Render",
		Icon:        "🧊",
		Description: "Pixar feel, soft modeling",
		Prompt:      "Transform this image into a Pixar-style 3D render or a high-end Unreal Engine 5 render. Features should be slightly stylized with rounded edges, soft global illumination and realistic material textures.",
	},
}

// CustomStyle is the sentinel option whose prompt is supplied by the user.
var CustomStyle = StyleOption{
	ID:          StyleCustom,
	Label:       "Custom Style",
	Icon:        "✍️",
	Description: "Describe the artistic look you want",
	Prompt:      "",
}

// DefaultStyle is selected for a fresh workspace.
func DefaultStyle() StyleOption {
	return styleCatalog[0]
}

// Styles returns the catalog followed by the custom sentinel.
func Styles() []StyleOption {
	out := make([]StyleOption, 0, len(styleCatalog)+1)
	out = append(out, styleCatalog...)
	return append(out, CustomStyle)
}

// LookupStyle resolves a style by identifier, case-insensitively.
func LookupStyle(id string) (StyleOption, bool) {
	key := StyleID(strings.ToLower(strings.TrimSpace(id)))
	if key == StyleCustom {
		return CustomStyle, true
	}
	for _, s := range styleCatalog {
		if s.ID == key {
			return s, true
		}
	}
	return StyleOption{}, false
}
