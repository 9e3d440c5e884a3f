package mission

import (
	"encoding/json"
	"strings"
)

const (
	noteDelimiter        = " | Note: "
	instructionDelimiter = " | Instr: "
)

// SideChannel is what older orders packed into the link column at checkout.
type SideChannel struct {
	Link         string
	Note         string
	Instructions *Instructions
}

// SplitSideChannel separates "<url> | Note: <text>" and the checkout fallback
// "<url> | Instr: <json>" into structured fields. A link without delimiters is
// returned unchanged.
func SplitSideChannel(raw string) SideChannel {
	rest := raw
	var out SideChannel

	if idx := strings.Index(rest, instructionDelimiter); idx >= 0 {
		payload := strings.TrimSpace(rest[idx+len(instructionDelimiter):])
		rest = rest[:idx]
		var instr Instructions
		if err := json.Unmarshal([]byte(payload), &instr); err == nil && !instr.IsZero() {
			out.Instructions = &instr
		}
	}
	if idx := strings.Index(rest, noteDelimiter); idx >= 0 {
		out.Note = strings.TrimSpace(rest[idx+len(noteDelimiter):])
		rest = rest[:idx]
	}
	out.Link = strings.TrimSpace(rest)
	return out
}

// NormalizeOrder moves side-channel data out of SocialLink when the structured
// fields are still empty.
func NormalizeOrder(o Order) Order {
	sc := SplitSideChannel(o.SocialLink)
	o.SocialLink = sc.Link
	if o.Note == "" {
		o.Note = sc.Note
	}
	if o.UserInstructions.IsZero() && sc.Instructions != nil {
		o.UserInstructions = sc.Instructions
	}
	return o
}

// ToneFor returns the comment tone used for a platform.
func ToneFor(p Platform) string {
	switch p {
	case PlatformTikTok, PlatformInstagram:
		return "Gaul"
	case PlatformYouTube:
		return "Santai"
	case PlatformFacebook:
		return "Formal"
	default:
		return "Sopan"
	}
}

// ContentContext picks the context handed to the content generator: the
// client's note, then their structured instructions, then a description built
// from the package and mission title.
func ContentContext(o Order, p Package, missionTitle string) string {
	if note := strings.TrimSpace(o.Note); note != "" {
		return note
	}
	if !o.UserInstructions.IsZero() {
		parts := make([]string, 0, 1+len(o.UserInstructions.Points))
		if t := strings.TrimSpace(o.UserInstructions.Topic); t != "" {
			parts = append(parts, t)
		}
		for _, pt := range o.UserInstructions.Points {
			if pt = strings.TrimSpace(pt); pt != "" {
				parts = append(parts, "- "+pt)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "\n")
		}
	}
	return p.Name + " - " + p.SubCategoryOrEmpty() + " - " + missionTitle
}
