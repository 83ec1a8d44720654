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
	"strings"
	"time"

	"github.com/penny-vault/pvdata/internal/model"
)

// node is a generic XML element used by the fallback parser to walk an
// entire document tree, for filings where facts are not flat children of
// the root (observed in some inline-XBRL exports).
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Text    string     `xml:",chardata"`
	Nodes   []node     `xml:",any"`
}

func (n node) attr(local string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// ParseInstanceFallback walks every element in the document looking for a
// contextRef attribute, without resolving periods or dimensions. It is
// used when ParseInstance's flat-children assumption does not hold or
// yields zero facts.
func ParseInstanceFallback(data []byte, accessionNumber string) (*ParseResult, error) {
	start := time.Now()

	var root node
	if err := xml.Unmarshal(data, &root); err != nil {
		return &ParseResult{
			Success:         false,
			AccessionNumber: accessionNumber,
			ErrorMessage:    err.Error(),
			ParseTimeMS:     float64(time.Since(start).Milliseconds()),
		}, err
	}

	var facts []model.Fact
	collectFacts(root, accessionNumber, &facts)

	coreFacts := make([]model.Fact, 0, len(facts))
	for _, f := range facts {
		if CoreConcepts[f.ConceptName] {
			coreFacts = append(coreFacts, f)
		}
	}

	return &ParseResult{
		Success:         true,
		AccessionNumber: accessionNumber,
		Facts:           facts,
		CoreFacts:       coreFacts,
		ParseTimeMS:     float64(time.Since(start).Milliseconds()),
	}, nil
}

func collectFacts(n node, accessionNumber string, out *[]model.Fact) {
	contextRef := n.attr("contextRef")
	if contextRef != "" && strings.TrimSpace(n.Text) != "" {
		prefix := namespacePrefix(n.XMLName.Space)
		conceptName := n.XMLName.Local
		if prefix != "" {
			conceptName = prefix + ":" + n.XMLName.Local
		}

		*out = append(*out, model.Fact{
			AccessionNumber: accessionNumber,
			Namespace:       prefix,
			LocalName:       n.XMLName.Local,
			ConceptName:     conceptName,
			Value:           parseValue(n.Text),
			Unit:            n.attr("unitRef"),
			PeriodType:      model.PeriodUnknown,
			IsCustom:        prefix != "us-gaap" && prefix != "dei",
		})
		return
	}

	for _, child := range n.Nodes {
		collectFacts(child, accessionNumber, out)
	}
}
