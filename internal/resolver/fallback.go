package resolver

import "strings"

// Route maps a set of keywords to a canned answer about one feature.
type Route struct {
	Feature  string
	Keywords []string
	Response string
}

// GenericResponse answers commands that match no route.
const GenericResponse = "I'm your TruthTrack assistant! Ask me about image detection, trending misinformation, fact-checking, or any of our AI-powered tools."

// SubstituteResponse replaces a remote answer that came back empty.
const SubstituteResponse = "I'm here to help with TruthTrack features. Try asking about our AI detection tools!"

// DefaultRoutes is the ordered keyword table used when the remote call
// fails. The first route with a matching keyword wins.
var DefaultRoutes = []Route{
	{
		Feature:  "AI Image Detection",
		Keywords: []string{"image", "photo", "deepfake"},
		Response: "Use our AI Image Detection to analyze photos for deepfakes and manipulation. Just upload an image and get instant results with 99% accuracy!",
	},
	{
		Feature:  "Trending Search",
		Keywords: []string{"trending", "viral", "social"},
		Response: "Check our Trending Search to monitor viral misinformation across social platforms in real-time. Search any topic for instant analysis!",
	},
	{
		Feature:  "Article Tag",
		Keywords: []string{"article", "news", "fact"},
		Response: "Our Article Tag feature provides comprehensive fact-checking with source verification. Just paste a URL or text to analyze credibility!",
	},
	{
		Feature:  "Template Share",
		Keywords: []string{"template", "share"},
		Response: "Browse Template Share for community-verified detection frameworks. Download templates and share your own resources!",
	},
	{
		Feature:  "Voice Assistant",
		Keywords: []string{"voice", "audio"},
		Response: "The Voice Assistant can detect synthetic speech and voice cloning. Upload audio files for authentication analysis!",
	},
}

// Fallback answers commands locally by case-insensitive substring match.
type Fallback struct {
	routes []Route
}

// NewFallback creates a fallback over routes, or DefaultRoutes if none.
func NewFallback(routes ...Route) *Fallback {
	if len(routes) == 0 {
		routes = DefaultRoutes
	}
	return &Fallback{routes: routes}
}

// Match returns the first route whose keyword occurs in text. ok is false
// when nothing matched.
func (f *Fallback) Match(text string) (Route, bool) {
	lower := strings.ToLower(text)
	for _, r := range f.routes {
		for _, k := range r.Keywords {
			if strings.Contains(lower, k) {
				return r, true
			}
		}
	}
	return Route{}, false
}

// Answer returns the canned response for text, never empty.
func (f *Fallback) Answer(text string) CommandResult {
	if r, ok := f.Match(text); ok {
		return CommandResult{
			ResponseText:    r.Response,
			RelevantFeature: r.Feature,
			Source:          SourceFallback,
		}
	}
	return CommandResult{ResponseText: GenericResponse, Source: SourceFallback}
}
