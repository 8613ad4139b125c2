package entity

// PlotKind classifies a plot point's structural role.
type PlotKind string

const (
	PlotSetup      PlotKind = "SETUP"
	PlotInciting   PlotKind = "INCITING"
	PlotRising     PlotKind = "RISING"
	PlotClimax     PlotKind = "CLIMAX"
	PlotResolution PlotKind = "RESOLUTION"
	PlotSubplot    PlotKind = "SUBPLOT"
)

// PlotPoint is one beat of the story's plot, optionally anchored to a
// chapter and referencing the characters it involves by name.
type PlotPoint struct {
	ChapterHint         *int            `json:"chapter_hint,omitempty"`
	Summary             string          `json:"summary"`
	Kind                PlotKind        `json:"kind"`
	InvolvedCharacters  map[string]bool `json:"involved_characters"`
	Resolved            bool            `json:"resolved"`
	// IsResolutionChapter distinguishes a foreshadow left dangling in an
	// ongoing story (INFO) from one left dangling in a chapter explicitly
	// marked as the resolution (WARN); see the plot consistency checker.
	IsResolutionChapter bool `json:"is_resolution_chapter"`
}

// NewPlotPoint creates a plot point with an empty character set.
func NewPlotPoint(summary string, kind PlotKind) *PlotPoint {
	return &PlotPoint{
		Summary:            summary,
		Kind:               kind,
		InvolvedCharacters: map[string]bool{},
	}
}

// InvolveCharacter records that a character appears in this plot point.
func (p *PlotPoint) InvolveCharacter(name string) {
	if name == "" {
		return
	}
	p.InvolvedCharacters[name] = true
}

// Clone returns a deep copy of the plot point.
func (p *PlotPoint) Clone() *PlotPoint {
	cp := &PlotPoint{
		Summary:             p.Summary,
		Kind:                p.Kind,
		Resolved:            p.Resolved,
		IsResolutionChapter: p.IsResolutionChapter,
		InvolvedCharacters:  make(map[string]bool, len(p.InvolvedCharacters)),
	}
	if p.ChapterHint != nil {
		hint := *p.ChapterHint
		cp.ChapterHint = &hint
	}
	for k, v := range p.InvolvedCharacters {
		cp.InvolvedCharacters[k] = v
	}
	return cp
}
