package export

import "time"

type documentDTO struct {
	ID           string        `json:"id" yaml:"id"`
	Topic        string        `json:"topic" yaml:"topic"`
	ContentType  string        `json:"content_type" yaml:"content_type"`
	CreatedAt    string        `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	CurrentPhase string        `json:"current_phase,omitempty" yaml:"current_phase,omitempty"`
	Phases       []phaseDTO    `json:"phases" yaml:"phases"`
	Sections     []sectionDTO  `json:"sections" yaml:"sections"`
	Transcript   []exchangeDTO `json:"transcript" yaml:"transcript"`
}

type phaseDTO struct {
	Name      string `json:"name" yaml:"name"`
	StartedAt string `json:"started_at" yaml:"started_at"`
	EndedAt   string `json:"ended_at,omitempty" yaml:"ended_at,omitempty"`
}

type sectionDTO struct {
	Title  string     `json:"title" yaml:"title"`
	Points []pointDTO `json:"points" yaml:"points"`
}

type pointDTO struct {
	Text     string   `json:"text" yaml:"text"`
	Evidence []string `json:"evidence,omitempty" yaml:"evidence,omitempty"`
}

type exchangeDTO struct {
	Role      string `json:"role" yaml:"role"`
	Text      string `json:"text" yaml:"text"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func newDTO(doc *Document) documentDTO {
	out := documentDTO{
		ID:           doc.Session.ID,
		Topic:        doc.Session.Topic,
		ContentType:  doc.Session.ContentType,
		CreatedAt:    stamp(doc.Session.CreatedAt),
		CurrentPhase: doc.CurrentPhase,
		Phases:       make([]phaseDTO, 0, len(doc.Phases)),
		Sections:     make([]sectionDTO, 0, len(doc.Structure.Sections)),
		Transcript:   make([]exchangeDTO, 0, len(doc.Transcript)),
	}
	for _, p := range doc.Phases {
		out.Phases = append(out.Phases, phaseDTO{
			Name:      p.Name,
			StartedAt: stamp(p.StartedAt),
			EndedAt:   stamp(p.EndedAt),
		})
	}
	for _, s := range doc.Structure.Sections {
		sec := sectionDTO{Title: s.Title, Points: make([]pointDTO, 0, len(s.Points))}
		for _, p := range s.Points {
			pt := pointDTO{Text: p.Text}
			for _, e := range p.Evidence {
				pt.Evidence = append(pt.Evidence, e.Text)
			}
			sec.Points = append(sec.Points, pt)
		}
		out.Sections = append(out.Sections, sec)
	}
	for _, ex := range doc.Transcript {
		out.Transcript = append(out.Transcript, exchangeDTO{
			Role:      string(ex.Role),
			Text:      ex.Text,
			Timestamp: stamp(ex.Timestamp),
		})
	}
	return out
}

