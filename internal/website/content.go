package website

import "fmt"

// Section names a website page as it appears in /website/{section}.
type Section string

const (
	Home      Section = "home"
	OurStory  Section = "ourstory"
	Portfolio Section = "portfolio"
	Contact   Section = "contact"
)

// Sections lists every editable section in menu order.
var Sections = []Section{Home, OurStory, Portfolio, Contact}

// Title is the display name of the section.
func (s Section) Title() string {
	switch s {
	case Home:
		return "Home"
	case OurStory:
		return "Our Story"
	case Portfolio:
		return "Portfolio"
	case Contact:
		return "Contact Us"
	default:
		return string(s)
	}
}

// MediaRef is a persisted image or video.
type MediaRef struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

func (m *MediaRef) url() string {
	if m == nil {
		return ""
	}
	return m.URL
}

// Block pairs rich text with one media item.
type Block struct {
	Text  string    `json:"text"`
	Media *MediaRef `json:"media"`
}

// Content is the decoded body of GET /website/{section}.
type Content interface {
	Section() Section
	values() values
}

// values is the flat form-field view of a section's content.
type values struct {
	slots  map[string]string
	texts  map[string]string
	prices []string
}

func newValues() values {
	return values{slots: map[string]string{}, texts: map[string]string{}}
}

// HomeContent is the landing page.
type HomeContent struct {
	Hero        *MediaRef   `json:"hero"`
	Luxe        *MediaRef   `json:"luxe"`
	Premium     *MediaRef   `json:"premium"`
	Veils       []*MediaRef `json:"veils"`
	Book        []Block     `json:"book"`
	StoryText   string      `json:"storyText"`
	LuxeText    string      `json:"luxeText"`
	PremiumText string      `json:"premiumText"`
}

func (*HomeContent) Section() Section { return Home }

func (c *HomeContent) values() values {
	v := newValues()
	v.slots["hero"] = c.Hero.url()
	v.slots["luxe"] = c.Luxe.url()
	v.slots["premium"] = c.Premium.url()
	for i := 0; i < homeVeils; i++ {
		var ref *MediaRef
		if i < len(c.Veils) {
			ref = c.Veils[i]
		}
		v.slots[fmt.Sprintf("veils_%d", i)] = ref.url()
	}
	for i := 0; i < homeBooks; i++ {
		var b Block
		if i < len(c.Book) {
			b = c.Book[i]
		}
		v.slots[fmt.Sprintf("book_%d", i)] = b.Media.url()
		v.texts[fmt.Sprintf("book_%d_text", i)] = b.Text
	}
	v.texts["storyText"] = c.StoryText
	v.texts["luxeText"] = c.LuxeText
	v.texts["premiumText"] = c.PremiumText
	return v
}

// OurStoryContent is the brand story page.
type OurStoryContent struct {
	Hero     *MediaRef   `json:"hero"`
	Section1 Block       `json:"section1"`
	Section2 Block       `json:"section2"`
	Section3 Block       `json:"section3"`
	Last     []*MediaRef `json:"last"`
}

func (*OurStoryContent) Section() Section { return OurStory }

func (c *OurStoryContent) values() values {
	v := newValues()
	v.slots["hero"] = c.Hero.url()
	for i, b := range []Block{c.Section1, c.Section2, c.Section3} {
		v.slots[fmt.Sprintf("section%d", i+1)] = b.Media.url()
		v.texts[fmt.Sprintf("section%d_text", i+1)] = b.Text
	}
	for i := 0; i < storyLast; i++ {
		var ref *MediaRef
		if i < len(c.Last) {
			ref = c.Last[i]
		}
		v.slots[fmt.Sprintf("last_%d", i)] = ref.url()
	}
	return v
}

// PortfolioContent is the portfolio page header.
type PortfolioContent struct {
	Hero *MediaRef `json:"hero"`
}

func (*PortfolioContent) Section() Section { return Portfolio }

func (c *PortfolioContent) values() values {
	v := newValues()
	v.slots["hero"] = c.Hero.url()
	return v
}

// ContactContent is the contact page with its price list.
type ContactContent struct {
	Hero        *MediaRef `json:"hero"`
	ContentText string    `json:"contentText"`
	PriceRanges []string  `json:"priceRanges"`
}

func (*ContactContent) Section() Section { return Contact }

func (c *ContactContent) values() values {
	v := newValues()
	v.slots["hero"] = c.Hero.url()
	v.texts["contentText"] = c.ContentText
	v.prices = append([]string{}, c.PriceRanges...)
	return v
}

const (
	homeVeils = 4
	homeBooks = 4
	storyLast = 3
)

// newContent returns an empty content value to decode section into.
func newContent(s Section) (Content, error) {
	switch s {
	case Home:
		return &HomeContent{}, nil
	case OurStory:
		return &OurStoryContent{}, nil
	case Portfolio:
		return &PortfolioContent{}, nil
	case Contact:
		return &ContactContent{}, nil
	}
	return nil, fmt.Errorf("unknown website section %q", s)
}

// layout lists a section's form fields in display order.
type layout struct {
	slots  []string
	texts  []string
	prices bool
}

func layoutOf(s Section) layout {
	switch s {
	case Home:
		l := layout{slots: []string{"hero", "luxe", "premium"}, texts: []string{"storyText", "luxeText", "premiumText"}}
		for i := 0; i < homeVeils; i++ {
			l.slots = append(l.slots, fmt.Sprintf("veils_%d", i))
		}
		for i := 0; i < homeBooks; i++ {
			l.slots = append(l.slots, fmt.Sprintf("book_%d", i))
			l.texts = append(l.texts, fmt.Sprintf("book_%d_text", i))
		}
		return l
	case OurStory:
		l := layout{slots: []string{"hero", "section1", "section2", "section3"}, texts: []string{"section1_text", "section2_text", "section3_text"}}
		for i := 0; i < storyLast; i++ {
			l.slots = append(l.slots, fmt.Sprintf("last_%d", i))
		}
		return l
	case Portfolio:
		return layout{slots: []string{"hero"}}
	case Contact:
		return layout{slots: []string{"hero"}, texts: []string{"contentText"}, prices: true}
	}
	return layout{}
}
