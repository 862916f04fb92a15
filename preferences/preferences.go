package preferences

import (
	"fmt"
	"strconv"
)

// Color blind modes
const (
	ColorBlindModeNone         = "none"
	ColorBlindModeProtanopia   = "protanopia"
	ColorBlindModeDeuteranopia = "deuteranopia"
	ColorBlindModeTritanopia   = "tritanopia"
	ColorBlindModeMonochrome   = "monochrome"
)

// Preference keys, stored as stringified primitives
const (
	ColorBlindModeKey = "colorBlindMode"
	DarkModeKey       = "darkMode"
	FontSizeKey       = "fontSize"
	HighContrastKey   = "highContrast"
	LastRoleKey       = "lastRole"
	SoundEffectsKey   = "soundEffects"
	VoiceReadingKey   = "voiceReadingEnabled"
)

// Preferences represents the accessibility preferences of the application.
// They survive restarts and are read by every component that needs to adapt
// its behavior.
type Preferences struct {
	ColorBlindMode string `json:"color_blind_mode"`
	DarkMode       bool   `json:"dark_mode"`
	FontSizePx     int    `json:"font_size_px"`
	HighContrast   bool   `json:"high_contrast"`
	LastRole       string `json:"last_role"`
	SoundEffects   bool   `json:"sound_effects"`
	VoiceReading   bool   `json:"voice_reading"`
}

// Defaults returns the default preferences
func Defaults() Preferences {
	return Preferences{
		ColorBlindMode: ColorBlindModeNone,
		FontSizePx:     16,
		SoundEffects:   true,
	}
}

func validColorBlindMode(m string) bool {
	switch m {
	case ColorBlindModeNone, ColorBlindModeProtanopia, ColorBlindModeDeuteranopia, ColorBlindModeTritanopia, ColorBlindModeMonochrome:
		return true
	}
	return false
}

// Set updates the preference named by its key with a stringified value. It
// returns whether the value actually changed.
func (p *Preferences) Set(key, value string) (changed bool, err error) {
	switch key {
	case ColorBlindModeKey:
		if !validColorBlindMode(value) {
			err = fmt.Errorf("preferences: invalid color blind mode %s", value)
			return
		}
		changed = p.ColorBlindMode != value
		p.ColorBlindMode = value
	case FontSizeKey:
		var v int
		if v, err = strconv.Atoi(value); err != nil {
			err = fmt.Errorf("preferences: invalid font size %s", value)
			return
		}
		changed = p.FontSizePx != v
		p.FontSizePx = v
	case DarkModeKey, HighContrastKey, SoundEffectsKey, VoiceReadingKey:
		var v bool
		if v, err = strconv.ParseBool(value); err != nil {
			err = fmt.Errorf("preferences: invalid boolean %s", value)
			return
		}
		switch key {
		case DarkModeKey:
			changed = p.DarkMode != v
			p.DarkMode = v
		case HighContrastKey:
			changed = p.HighContrast != v
			p.HighContrast = v
		case SoundEffectsKey:
			changed = p.SoundEffects != v
			p.SoundEffects = v
		case VoiceReadingKey:
			changed = p.VoiceReading != v
			p.VoiceReading = v
		}
	case LastRoleKey:
		changed = p.LastRole != value
		p.LastRole = value
	default:
		err = fmt.Errorf("preferences: unknown key %s", key)
	}
	return
}

// Value returns the stringified value of the preference named by its key
func (p Preferences) Value(key string) (string, error) {
	switch key {
	case ColorBlindModeKey:
		return p.ColorBlindMode, nil
	case DarkModeKey:
		return strconv.FormatBool(p.DarkMode), nil
	case FontSizeKey:
		return strconv.Itoa(p.FontSizePx), nil
	case HighContrastKey:
		return strconv.FormatBool(p.HighContrast), nil
	case LastRoleKey:
		return p.LastRole, nil
	case SoundEffectsKey:
		return strconv.FormatBool(p.SoundEffects), nil
	case VoiceReadingKey:
		return strconv.FormatBool(p.VoiceReading), nil
	}
	return "", fmt.Errorf("preferences: unknown key %s", key)
}

// Keys returns all preference keys
func Keys() []string {
	return []string{ColorBlindModeKey, DarkModeKey, FontSizeKey, HighContrastKey, LastRoleKey, SoundEffectsKey, VoiceReadingKey}
}
