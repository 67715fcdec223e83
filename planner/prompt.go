package planner

import (
	"fmt"
	"strings"

	"shortform-pipeline/types"
)

// planSchema is the JSON contract the analysis model must follow. Defaults
// for filter/transition/font are patched in from the trending style.
const planSchema = `Output a JSON object with the following structure:
{
    "cuts": [
        {
            "start_time": "HH:MM:SS",
            "end_time": "HH:MM:SS",
            "description": "Short description",
            "filter": "suggested style/filter (e.g. %s)",
            "transition_type": "fade/wipeleft/slideup/circleopen (default: %s)",
            "focus_point": 0.5,
            "caption": "Short, punchy text overlay (e.g. 'WOW!', 'Nice!')",
            "caption_style": {
                "font": "sans/serif/handwriting (default: %s)",
                "color": "white/yellow/cyan",
                "position": "bottom/center/top",
                "box": true/false,
                "background_asset": "simple_box/news_ticker/none (choose appropriate style)"
            }
        }
    ],
    "editing_style": {
        "tempo": "fast/slow/dynamic",
        "mood": "exciting/calm/etc"
    },
    "se_events": [
        {
            "timestamp": "HH:MM:SS",
            "type": "impact/whoosh/laugh/correct/incorrect (e.g. use 'impact' for Emphasis)",
            "tag": "funny/serious/etc"
        }
    ],
    "visual_effects": [
        {
            "start": "HH:MM:SS",
            "end": "HH:MM:SS",
            "type": "zoom_in/pan_left/pan_right/zoom_out",
            "speed": "slow/fast (default: fast for zoom_in, slow for pan)"
        }
    ],
    "thumbnail": {
        "timestamp": "HH:MM:SS (Best frame for clickbait)",
        "text": "Short Uppercase Title (e.g. SHOCKING!)",
        "color": "red/yellow/white"
    }
}`

// buildPrompt composes the analysis prompt: trending-style context first,
// then the JSON schema, then the editing directives. script is optional
// user-supplied context from the metadata sidecar.
func buildPrompt(style *types.StyleFingerprint, script string) string {
	filter, transition, font := "none", "fade", "sans"
	var sb strings.Builder

	sb.WriteString("Analyze this video.\n")

	if style != nil {
		if style.FilterUsage != "" {
			filter = style.FilterUsage
		}
		if style.TransitionType != "" {
			transition = style.TransitionType
		}
		if style.CaptionStyle != "" {
			font = style.CaptionStyle
		}
		sb.WriteString("APPLY THIS TRENDING STYLE:\n")
		sb.WriteString(fmt.Sprintf("- Cuts/Min aim: %.1f\n", style.CutsPerMin))
		sb.WriteString(fmt.Sprintf("- Filter: %s\n", style.FilterUsage))
		sb.WriteString(fmt.Sprintf("- Transition: %s\n", style.TransitionType))
		sb.WriteString(fmt.Sprintf("- Caption Style: %s\n", style.CaptionStyle))
	}

	if script != "" {
		sb.WriteString("CONTEXT FROM THE CREATOR (use it to pick captions and highlights):\n")
		sb.WriteString(script)
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf(planSchema, filter, transition, font))
	sb.WriteString(`

Focus on identifying excitement points and editing style.
IMPORTANT:
1. Do not caption every single segment. Be selective. Prioritize reactions.
2. ADD SOUND EFFECTS (SE) where appropriate.
3. ADD VISUAL EFFECTS (Zoom/Pan).
4. THUMBNAIL: Choose the most expressive/shocking frame and a short punchy title.
5. VERTICAL CROP: For each cut, determine the focus_point (0.0-1.0) where the subject is located horizontally. 0.5 is center.
Ensure strict JSON output.`)

	return sb.String()
}
