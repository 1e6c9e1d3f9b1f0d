package commands

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/AnatoleLucet/lyra"
	"github.com/AnatoleLucet/lyra/internal/scene"
)

// Script describes a document and the gestures to demonstrate on it.
type Script struct {
	Datasets     []Dataset     `yaml:"datasets"`
	Scales       []Scale       `yaml:"scales"`
	Marks        []Mark        `yaml:"marks"`
	Interactions []Interaction `yaml:"interactions"`

	Demonstrations []Demonstration `yaml:"demonstrate"`
}

type Dataset struct {
	Name   string           `yaml:"name"`
	Fields []string         `yaml:"fields"`
	Values []map[string]any `yaml:"values"`
}

type Scale struct {
	Name   string          `yaml:"name"`
	Type   scene.ScaleType `yaml:"type"`
	Domain *struct {
		Data  string `yaml:"data"`
		Field string `yaml:"field"`
	} `yaml:"domain"`
	Range    string  `yaml:"range"`
	Exponent float64 `yaml:"exponent"`
}

// Mark is added under the scene, or under its parent in the script.
// From names a dataset.
type Mark struct {
	Name   string                     `yaml:"name"`
	Type   scene.MarkType             `yaml:"type"`
	From   string                     `yaml:"from"`
	Encode map[string]*scene.ValueRef `yaml:"encode"`
	Marks  []Mark                     `yaml:"marks"`
}

// Interaction is demonstrated in the group named Group. Selection and
// Application are candidate ids, picked among the previews the input yields.
type Interaction struct {
	Group       string       `yaml:"group"`
	Input       *scene.Input `yaml:"input"`
	Selection   string       `yaml:"selection"`
	Application string       `yaml:"application"`
}

// Demonstration sets view signals in the group of an interaction, by index
// in the script.
type Demonstration struct {
	Interaction int            `yaml:"interaction"`
	Signals     map[string]any `yaml:"signals"`
}

func LoadScript(path string) (*Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Script
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

// Built maps script names to document ids.
type Built struct {
	Datasets     map[string]int
	Marks        map[string]int
	Interactions []int
}

// Build adds the document of the script to e.
func (s *Script) Build(e *lyra.Editor) (*Built, error) {
	b := &Built{Datasets: map[string]int{}, Marks: map[string]int{}}

	for _, ds := range s.Datasets {
		b.Datasets[ds.Name] = e.AddDataset(&scene.Dataset{Name: ds.Name, Fields: ds.Fields, Values: ds.Values})
	}

	for _, sc := range s.Scales {
		out := &scene.Scale{Name: sc.Name, Type: sc.Type, Range: sc.Range, Exponent: sc.Exponent}
		if sc.Domain != nil {
			id, ok := b.Datasets[sc.Domain.Data]
			if !ok {
				return nil, fmt.Errorf("scale %q: unknown dataset %q", sc.Name, sc.Domain.Data)
			}
			out.Domain = &scene.Domain{Data: id, Field: sc.Domain.Field}
		}
		e.AddScale(out)
	}

	for _, m := range s.Marks {
		if err := b.mark(e, e.Document().SceneID, m); err != nil {
			return nil, err
		}
	}

	for i, in := range s.Interactions {
		id, err := b.interaction(e, in)
		if err != nil {
			return nil, fmt.Errorf("interaction %d: %w", i, err)
		}
		b.Interactions = append(b.Interactions, id)
	}

	return b, nil
}

func (b *Built) mark(e *lyra.Editor, parent int, m Mark) error {
	out := &scene.Mark{Parent: parent, Type: m.Type, Name: m.Name, Encode: m.Encode}
	if m.From != "" {
		id, ok := b.Datasets[m.From]
		if !ok {
			return fmt.Errorf("mark %q: unknown dataset %q", m.Name, m.From)
		}
		out.From = &scene.From{Data: id}
	}

	id, err := e.AddMark(out)
	if err != nil {
		return err
	}
	b.Marks[out.Name] = id

	for _, child := range m.Marks {
		if err := b.mark(e, id, child); err != nil {
			return err
		}
	}
	return nil
}

func (b *Built) interaction(e *lyra.Editor, in Interaction) (int, error) {
	group, ok := b.Marks[in.Group]
	if !ok {
		return 0, fmt.Errorf("unknown group %q", in.Group)
	}

	id, err := e.AddInteraction(group)
	if err != nil {
		return 0, err
	}
	if in.Input == nil {
		return id, nil
	}
	if err := e.SetInput(*in.Input, id); err != nil {
		return 0, err
	}

	sels, apps, err := e.Previews(id)
	if err != nil {
		return 0, err
	}

	if in.Selection != "" {
		i := slices.IndexFunc(sels, func(s scene.Selection) bool { return s.Info().ID == in.Selection })
		if i < 0 {
			return 0, fmt.Errorf("no selection candidate %q", in.Selection)
		}
		if err := e.SetSelection(sels[i], id); err != nil {
			return 0, err
		}
	}
	if in.Application != "" {
		i := slices.IndexFunc(apps, func(a scene.Application) bool { return a.Info().ID == in.Application })
		if i < 0 {
			return 0, fmt.Errorf("no application candidate %q", in.Application)
		}
		if err := e.SetApplication(apps[i], id); err != nil {
			return 0, err
		}
	}

	return id, nil
}
