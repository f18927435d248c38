package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"lottery-relay/internal/domain"
)

//go:embed sources.yaml
var defaultSources []byte

// Типы планировщика.
const (
	PlannerCumulative = "cumulative"
	PlannerSequential = "sequential"
)

type sourcesFile struct {
	Flows map[string]flowFile `yaml:"flows"`
	Lucky struct {
		Types []string `yaml:"types"`
	} `yaml:"lucky"`
}

type flowFile struct {
	Namespace    string      `yaml:"namespace"`
	Planner      string      `yaml:"planner"`
	Document     string      `yaml:"document"`
	StrictStatus bool        `yaml:"strict_status"`
	FailOpen     bool        `yaml:"fail_open"`
	Image        *imageFile  `yaml:"image"`
	Listing      *listingRef `yaml:"listing"`
	Slots        []slotFile  `yaml:"slots"`
}

type imageFile struct {
	Attrs map[string]string `yaml:"attrs"`
	Class string            `yaml:"class"`
}

type listingRef struct {
	URL      string `yaml:"url"`
	Selector string `yaml:"selector"`
}

type slotFile struct {
	Name  string `yaml:"name"`
	After string `yaml:"after"`
	Page  string `yaml:"page"`
}

// Sources хранит неизменяемое описание издателей. Значения отдаются копиями.
type Sources struct {
	flows      map[string]Flow
	luckyTypes []string
}

// Flow хранит настройки одного краулера.
type Flow struct {
	name         string
	namespace    string
	planner      string
	kind         domain.DocumentKind
	strictStatus bool
	failOpen     bool
	windows      []domain.SlotWindow
	pages        map[domain.Slot]string
	imageAttrs   map[string]string
	imageClass   *regexp.Regexp
	listingURL   string
	listingSel   string
}

// DefaultSources разбирает встроенный sources.yaml.
func DefaultSources() (Sources, error) {
	return ParseSources(defaultSources)
}

// ParseSources разбирает и проверяет YAML с описанием издателей.
func ParseSources(data []byte) (Sources, error) {
	var file sourcesFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return Sources{}, fmt.Errorf("parse sources: %w", err)
	}
	if len(file.Flows) == 0 {
		return Sources{}, fmt.Errorf("sources: no flows declared")
	}
	src := Sources{flows: make(map[string]Flow, len(file.Flows)), luckyTypes: append([]string(nil), file.Lucky.Types...)}
	for name, ff := range file.Flows {
		flow, err := buildFlow(name, ff)
		if err != nil {
			return Sources{}, fmt.Errorf("sources: flow %s: %w", name, err)
		}
		src.flows[name] = flow
	}
	return src, nil
}

func buildFlow(name string, ff flowFile) (Flow, error) {
	flow := Flow{
		name:         name,
		namespace:    ff.Namespace,
		planner:      ff.Planner,
		kind:         domain.DocumentKind(ff.Document),
		strictStatus: ff.StrictStatus,
		failOpen:     ff.FailOpen,
		pages:        map[domain.Slot]string{},
	}
	if flow.namespace == "" {
		flow.namespace = name
	}
	switch flow.planner {
	case PlannerCumulative, PlannerSequential:
	default:
		return Flow{}, fmt.Errorf("unknown planner %q", ff.Planner)
	}
	if len(ff.Slots) == 0 {
		return Flow{}, fmt.Errorf("no slots declared")
	}
	seen := map[domain.Slot]bool{}
	prev := -1
	for _, sf := range ff.Slots {
		slot, err := domain.ParseSlot(sf.Name)
		if err != nil {
			return Flow{}, err
		}
		if seen[slot] {
			return Flow{}, fmt.Errorf("slot %s declared twice", slot)
		}
		seen[slot] = true
		after, err := domain.ParseClockTime(sf.After)
		if err != nil {
			return Flow{}, fmt.Errorf("slot %s: %w", slot, err)
		}
		if after.Minutes() <= prev {
			return Flow{}, fmt.Errorf("slot %s: thresholds must ascend", slot)
		}
		prev = after.Minutes()
		flow.windows = append(flow.windows, domain.SlotWindow{Slot: slot, After: after})
		if sf.Page != "" {
			flow.pages[slot] = sf.Page
		}
	}

	switch flow.kind {
	case domain.KindImage:
		if ff.Image == nil {
			return Flow{}, fmt.Errorf("image rule is required for image flows")
		}
		if len(flow.pages) != len(flow.windows) {
			return Flow{}, fmt.Errorf("every slot needs a page")
		}
		flow.imageAttrs = make(map[string]string, len(ff.Image.Attrs))
		for k, v := range ff.Image.Attrs {
			flow.imageAttrs[k] = v
		}
		if ff.Image.Class != "" {
			re, err := regexp.Compile(ff.Image.Class)
			if err != nil {
				return Flow{}, fmt.Errorf("image class: %w", err)
			}
			flow.imageClass = re
		}
	case domain.KindPDF:
		if ff.Listing == nil || ff.Listing.URL == "" || ff.Listing.Selector == "" {
			return Flow{}, fmt.Errorf("listing url and selector are required for pdf flows")
		}
		flow.listingURL = ff.Listing.URL
		flow.listingSel = ff.Listing.Selector
	default:
		return Flow{}, fmt.Errorf("unknown document kind %q", ff.Document)
	}
	return flow, nil
}

// Flow возвращает настройки потока по имени.
func (s Sources) Flow(name string) (Flow, error) {
	flow, ok := s.flows[name]
	if !ok {
		return Flow{}, fmt.Errorf("sources: unknown flow %q", name)
	}
	return flow, nil
}

// LuckyTypes возвращает категории для счастливых чисел.
func (s Sources) LuckyTypes() []string {
	return append([]string(nil), s.luckyTypes...)
}

func (f Flow) Name() string { return f.name }
func (f Flow) Namespace() string { return f.namespace }
func (f Flow) Planner() string { return f.planner }
func (f Flow) Kind() domain.DocumentKind { return f.kind }
func (f Flow) StrictStatus() bool { return f.strictStatus }
func (f Flow) FailOpen() bool { return f.failOpen }
func (f Flow) ListingURL() string { return f.listingURL }
func (f Flow) ListingSelector() string { return f.listingSel }
func (f Flow) ImageClass() *regexp.Regexp { return f.imageClass }
func (f Flow) Windows() []domain.SlotWindow { return append([]domain.SlotWindow(nil), f.windows...) }

// Slots возвращает слоты в порядке объявления.
func (f Flow) Slots() []domain.Slot {
	slots := make([]domain.Slot, 0, len(f.windows))
	for _, w := range f.windows {
		slots = append(slots, w.Slot)
	}
	return slots
}

// Pages возвращает страницы слотов.
func (f Flow) Pages() map[domain.Slot]string {
	pages := make(map[domain.Slot]string, len(f.pages))
	for k, v := range f.pages {
		pages[k] = v
	}
	return pages
}

// ImageAttrs возвращает обязательные атрибуты картинки результата.
func (f Flow) ImageAttrs() map[string]string {
	attrs := make(map[string]string, len(f.imageAttrs))
	for k, v := range f.imageAttrs {
		attrs[k] = v
	}
	return attrs
}
