package runtime

import (
	"golang.org/x/text/encoding/charmap"
)

// ANSI code pages by language. Languages not listed use windows-1252.
var codePages = map[string]*charmap.Charmap{
	"cs": charmap.Windows1250, "hr": charmap.Windows1250, "hu": charmap.Windows1250,
	"pl": charmap.Windows1250, "ro": charmap.Windows1250, "sk": charmap.Windows1250,
	"sl": charmap.Windows1250, "sq": charmap.Windows1250,
	"be": charmap.Windows1251, "bg": charmap.Windows1251, "kk": charmap.Windows1251,
	"ky": charmap.Windows1251, "mk": charmap.Windows1251, "mn": charmap.Windows1251,
	"ru": charmap.Windows1251, "az": charmap.Windows1251, "uz": charmap.Windows1251,
	"sr": charmap.Windows1251, "tt": charmap.Windows1251, "uk": charmap.Windows1251,
	"el": charmap.Windows1253,
	"tr": charmap.Windows1254,
	"he": charmap.Windows1255,
	"ar": charmap.Windows1256, "fa": charmap.Windows1256, "ur": charmap.Windows1256,
	"et": charmap.Windows1257, "lt": charmap.Windows1257, "lv": charmap.Windows1257,
	"vi": charmap.Windows1258,
	"th": charmap.Windows874,
}

func (env *Environment) charmap() *charmap.Charmap {
	base, _ := env.locale.Base()
	if cm, ok := codePages[base.String()]; ok {
		return cm
	}
	return charmap.Windows1252
}

// Char implements CHAR(code): the character with the given code in the
// locale's ANSI code page.
func (env *Environment) Char(code int) (string, error) {
	if code < 1 || code > 255 {
		return "", Fail(CodeValue, "because code %d is out of range in CHAR", code)
	}
	r := env.charmap().DecodeByte(byte(code))
	return string(r), nil
}

// Code implements CODE(text): the code page value of the first character.
func (env *Environment) Code(text string) (int, error) {
	for _, r := range text {
		b, ok := env.charmap().EncodeRune(r)
		if !ok {
			return '?', nil
		}
		return int(b), nil
	}
	return 0, Fail(CodeValue, "because text is empty in CODE")
}
