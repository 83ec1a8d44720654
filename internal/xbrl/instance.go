// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package xbrl

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/penny-vault/pvdata/internal/model"
)

var camelSplit = regexp.MustCompile(`([A-Z])`)

type contextXML struct {
	XMLName xml.Name
	ID      string `xml:"id,attr"`
	Period  struct {
		Instant   string `xml:"instant"`
		StartDate string `xml:"startDate"`
		EndDate   string `xml:"endDate"`
	} `xml:"period"`
	Entity struct {
		Segment struct {
			ExplicitMember []explicitMemberXML `xml:"explicitMember"`
		} `xml:"segment"`
	} `xml:"entity"`
}

type explicitMemberXML struct {
	Dimension string `xml:"dimension,attr"`
	Value     string `xml:",chardata"`
}

type unitXML struct {
	XMLName xml.Name
	ID      string `xml:"id,attr"`
	Measure string `xml:"measure"`
	Divide  struct {
		Numerator struct {
			Measure string `xml:"measure"`
		} `xml:"unitNumerator"`
	} `xml:"divide"`
}

type factXML struct {
	XMLName    xml.Name
	ContextRef string `xml:"contextRef,attr"`
	UnitRef    string `xml:"unitRef,attr"`
	Decimals   string `xml:"decimals,attr"`
	Sign       string `xml:"sign,attr"`
	Text       string `xml:",chardata"`
}

// ParseInstance parses an XBRL instance document's direct-child facts,
// resolving each against its <context> (period, dimensions) and <unit>
// (measure). It assumes the conventional flat shape where contexts,
// units, and facts are all direct children of the document root; for
// documents that nest facts more deeply (observed in some inline-XBRL
// exports), ParseInstanceFallback walks the whole tree instead.
func ParseInstance(data []byte, accessionNumber string) (*ParseResult, error) {
	start := time.Now()

	contexts := make(map[string]contextInfo)
	units := make(map[string]unitInfo)
	var facts []model.Fact

	dec := xml.NewDecoder(bytes.NewReader(data))
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}

		switch se := tok.(type) {
		case xml.StartElement:
			depth++
			if depth != 2 {
				continue
			}

			switch se.Name.Local {
			case "context":
				var cx contextXML
				if err := dec.DecodeElement(&cx, &se); err == nil {
					contexts[cx.ID] = parseContext(cx)
				}
				depth--
			case "unit":
				var ux unitXML
				if err := dec.DecodeElement(&ux, &se); err == nil {
					units[ux.ID] = parseUnit(ux)
				}
				depth--
			case "schemaRef", "roleRef", "arcroleRef", "linkbaseRef":
				var skip struct{ XMLName xml.Name }
				_ = dec.DecodeElement(&skip, &se)
				depth--
			default:
				var fe factXML
				if err := dec.DecodeElement(&fe, &se); err == nil && fe.ContextRef != "" {
					fact := buildFact(se.Name, fe, contexts[fe.ContextRef], units[fe.UnitRef], accessionNumber)
					facts = append(facts, fact)
				}
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	coreFacts := make([]model.Fact, 0, len(facts))
	for _, f := range facts {
		if CoreConcepts[f.ConceptName] {
			coreFacts = append(coreFacts, f)
		}
	}

	periodEnd := extractPeriodEnd(facts)

	return &ParseResult{
		Success:         true,
		AccessionNumber: accessionNumber,
		Facts:           facts,
		CoreFacts:       coreFacts,
		PeriodEnd:       periodEnd,
		ParseTimeMS:     float64(time.Since(start).Milliseconds()),
	}, nil
}

func parseContext(cx contextXML) contextInfo {
	info := contextInfo{Dimensions: make(map[string]string)}

	if cx.Period.Instant != "" {
		info.IsInstant = true
		if t, err := time.Parse("2006-01-02", cx.Period.Instant); err == nil {
			info.End = &t
		}
	} else {
		info.IsInstant = false
		if t, err := time.Parse("2006-01-02", cx.Period.StartDate); err == nil {
			info.Start = &t
		}
		if t, err := time.Parse("2006-01-02", cx.Period.EndDate); err == nil {
			info.End = &t
		}
	}

	for _, m := range cx.Entity.Segment.ExplicitMember {
		info.Dimensions[m.Dimension] = strings.TrimSpace(m.Value)
	}

	return info
}

func parseUnit(ux unitXML) unitInfo {
	measure := ux.Measure
	if measure == "" {
		measure = ux.Divide.Numerator.Measure
	}
	return unitInfo{Measure: stripMeasurePrefix(measure)}
}

func stripMeasurePrefix(measure string) string {
	if idx := strings.Index(measure, ":"); idx != -1 {
		return measure[idx+1:]
	}
	return measure
}

func buildFact(name xml.Name, fe factXML, ctx contextInfo, unit unitInfo, accessionNumber string) model.Fact {
	prefix := namespacePrefix(name.Space)
	conceptName := name.Local
	if prefix != "" {
		conceptName = prefix + ":" + name.Local
	}

	isCustom := prefix != "us-gaap"

	value := parseValue(fe.Text)

	var decimals *int32
	if fe.Decimals != "" && fe.Decimals != "INF" {
		if d, err := strconv.Atoi(fe.Decimals); err == nil {
			d32 := int32(d)
			decimals = &d32
		}
	}

	periodType := model.PeriodUnknown
	var periodStart *time.Time
	var periodEnd time.Time
	if ctx.IsInstant {
		periodType = model.PeriodInstant
		if ctx.End != nil {
			periodEnd = *ctx.End
		}
	} else if ctx.Start != nil || ctx.End != nil {
		periodType = model.PeriodDuration
		periodStart = ctx.Start
		if ctx.End != nil {
			periodEnd = *ctx.End
		}
	}

	return model.Fact{
		AccessionNumber: accessionNumber,
		Namespace:       prefix,
		LocalName:       name.Local,
		ConceptName:     conceptName,
		Value:           value,
		Unit:            unit.Measure,
		Decimals:        decimals,
		PeriodType:      periodType,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		Dimensions:      ctx.Dimensions,
		IsCustom:        isCustom,
	}
}

func parseValue(text string) model.Value {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if cleaned == "" {
		return model.Value{Kind: model.ValueMissing}
	}
	if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return model.NumericValue(f)
	}
	return model.TextValue(strings.TrimSpace(text))
}

func namespacePrefix(namespace string) string {
	for ns, prefix := range namespacePrefixes {
		if strings.HasPrefix(namespace, ns) {
			return prefix
		}
	}
	return ""
}

// extractPeriodEnd prefers the filer-declared DocumentPeriodEndDate fact,
// falling back to the most frequently occurring period end among all
// facts.
func extractPeriodEnd(facts []model.Fact) *time.Time {
	for _, f := range facts {
		if f.LocalName == "DocumentPeriodEndDate" && f.Value.Kind == model.ValueText {
			if t, err := time.Parse("2006-01-02", f.Value.Text); err == nil {
				return &t
			}
		}
	}

	counts := make(map[time.Time]int)
	for _, f := range facts {
		if !f.PeriodEnd.IsZero() {
			counts[f.PeriodEnd]++
		}
	}

	var best time.Time
	bestCount := 0
	for t, c := range counts {
		if c > bestCount {
			best = t
			bestCount = c
		}
	}
	if bestCount == 0 {
		return nil
	}
	return &best
}

// generateLabel splits a camelCase local name into words, used when no
// label linkbase entry exists for a concept.
func generateLabel(localName string) string {
	spaced := camelSplit.ReplaceAllString(localName, " $1")
	return strings.TrimSpace(spaced)
}

var errNoInstanceFound = fmt.Errorf("no XBRL instance document found")
