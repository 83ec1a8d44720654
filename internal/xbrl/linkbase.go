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
	"encoding/xml"
	"strconv"
	"strings"
)

var sectionNames = map[string]string{
	"incomestatement":       "IncomeStatement",
	"ofoperations":          "IncomeStatement",
	"operations":            "IncomeStatement",
	"comprehensiveincome":   "IncomeStatement",
	"balancesheet":          "BalanceSheet",
	"financialposition":     "BalanceSheet",
	"offinancialposition":   "BalanceSheet",
	"cashflow":              "CashFlowStatement",
	"ofcashflows":           "CashFlowStatement",
	"cashflows":             "CashFlowStatement",
	"equity":                "StockholdersEquity",
	"ofstockholdersequity":  "StockholdersEquity",
	"stockholdersequity":    "StockholdersEquity",
	"financialinstruments":  "FinancialInstruments",
	"fairvalue":             "FairValue",
	"debt":                  "Debt",
	"leases":                "Leases",
	"commitments":           "Commitments",
	"incometaxes":           "IncomeTaxes",
	"taxes":                 "IncomeTaxes",
	"segmentreporting":      "Segments",
	"segments":              "Segments",
	"coverpage":             "CoverPage",
	"documentandentityinformation": "CoverPage",
}

type presentationLinkbaseXML struct {
	Links []presentationLinkXML `xml:"presentationLink"`
}

type presentationLinkXML struct {
	Role string              `xml:"role,attr"`
	Locs []locXML            `xml:"loc"`
	Arcs []presentationArcXML `xml:"presentationArc"`
}

type locXML struct {
	Label string `xml:"label,attr"`
	Href  string `xml:"href,attr"`
}

type presentationArcXML struct {
	From  string `xml:"from,attr"`
	To    string `xml:"to,attr"`
	Order string `xml:"order,attr"`
}

// ParsePresentationLinkbase builds a concept-name -> ConceptHierarchy map
// from a _pre.xml linkbase: each presentationLink is a section (named by
// its role URI), and its arcs describe parent/child concept nesting.
func ParsePresentationLinkbase(data []byte) map[string]ConceptHierarchy {
	var doc presentationLinkbaseXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return map[string]ConceptHierarchy{}
	}

	hierarchy := make(map[string]ConceptHierarchy)

	for _, link := range doc.Links {
		section := extractSectionFromRole(link.Role)

		labelToConcept := make(map[string]string)
		for _, loc := range link.Locs {
			if concept := conceptFromHref(loc.Href); concept != "" {
				labelToConcept[loc.Label] = concept
			}
		}

		parentOf := make(map[string]string)
		orderOf := make(map[string]float64)
		for _, arc := range link.Arcs {
			fromConcept, toConcept := labelToConcept[arc.From], labelToConcept[arc.To]
			if fromConcept == "" || toConcept == "" {
				continue
			}
			parentOf[toConcept] = fromConcept
			if order, err := strconv.ParseFloat(arc.Order, 64); err == nil {
				orderOf[toConcept] = order
			}
		}

		for _, concept := range labelToConcept {
			if _, exists := hierarchy[concept]; exists {
				continue
			}
			order, hasOrder := orderOf[concept]
			if !hasOrder {
				order = 999.0
			}
			hierarchy[concept] = ConceptHierarchy{
				ConceptName:   concept,
				Section:       section,
				ParentConcept: parentOf[concept],
				Depth:         depthOf(concept, parentOf, make(map[string]bool)),
				Order:         order,
			}
		}
	}

	return hierarchy
}

func depthOf(concept string, parentOf map[string]string, visited map[string]bool) int {
	if visited[concept] {
		return 0
	}
	visited[concept] = true
	parent, ok := parentOf[concept]
	if !ok || parent == "" {
		return 0
	}
	return 1 + depthOf(parent, parentOf, visited)
}

func conceptFromHref(href string) string {
	idx := strings.LastIndex(href, "#")
	if idx == -1 {
		return ""
	}
	concept := href[idx+1:]

	switch {
	case strings.Contains(concept, "us-gaap_"):
		return "us-gaap:" + concept[strings.Index(concept, "us-gaap_")+len("us-gaap_"):]
	case strings.Contains(concept, "us-gaap:"), strings.Contains(concept, "dei:"):
		return concept
	case strings.Contains(strings.ToLower(href), "us-gaap"):
		return "us-gaap:" + concept
	default:
		return concept
	}
}

func extractSectionFromRole(role string) string {
	if role == "" {
		return "Other"
	}

	trimmed := strings.TrimRight(role, "/")
	parts := strings.Split(trimmed, "/")
	section := parts[len(parts)-1]

	lower := strings.ToLower(section)
	for pattern, standard := range sectionNames {
		if strings.Contains(lower, pattern) {
			return standard
		}
	}

	section = strings.Trim(section, "_-")
	if section == "" {
		return "Other"
	}
	return section
}

type labelLinkbaseXML struct {
	Links []labelLinkXML `xml:"labelLink"`
}

type labelLinkXML struct {
	Locs   []locXML      `xml:"loc"`
	Labels []labelElemXML `xml:"label"`
	Arcs   []labelArcXML `xml:"labelArc"`
}

type labelElemXML struct {
	Label string `xml:"label,attr"`
	Role  string `xml:"role,attr"`
	Text  string `xml:",chardata"`
}

type labelArcXML struct {
	From string `xml:"from,attr"`
	To   string `xml:"to,attr"`
}

// ParseLabelLinkbase builds a concept-name -> preferred label map from a
// _lab.xml linkbase, preferring the terse label role, then the standard
// label role, then any other role.
func ParseLabelLinkbase(data []byte) map[string]string {
	var doc labelLinkbaseXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return map[string]string{}
	}

	labels := make(map[string]string)
	conceptRanks := make(map[string]int)

	for _, link := range doc.Links {
		locToConcept := make(map[string]string)
		for _, loc := range link.Locs {
			if concept := conceptFromHref(loc.Href); concept != "" {
				locToConcept[loc.Label] = concept
			}
		}

		// Rank label roles: terse 3, standard 2, any other role 1.
		labelTexts := make(map[string]string)
		labelRanks := make(map[string]int)
		for _, le := range link.Labels {
			text := strings.TrimSpace(le.Text)
			roleLower := strings.ToLower(le.Role)
			rank := 1
			switch {
			case strings.Contains(roleLower, "terse"):
				rank = 3
			case strings.HasSuffix(roleLower, "/label"):
				rank = 2
			}
			if rank > labelRanks[le.Label] {
				labelTexts[le.Label] = text
				labelRanks[le.Label] = rank
			}
		}

		for _, arc := range link.Arcs {
			concept := locToConcept[arc.From]
			text := labelTexts[arc.To]
			if concept == "" || text == "" {
				continue
			}
			if labelRanks[arc.To] > conceptRanks[concept] {
				labels[concept] = text
				conceptRanks[concept] = labelRanks[arc.To]
			}
		}
	}

	return labels
}
