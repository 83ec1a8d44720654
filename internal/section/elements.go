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
package section

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Category classifies a partitioned HTML element, mirroring the
// vocabulary of a general-purpose HTML partitioner: headings are
// "Title", list items are "ListItem", tables are "Table", and everything
// else of substance is "UncategorizedText" (SEC filings rarely carry
// semantic heading markup for Item headers, so header detection must
// also consider this category).
type Category string

const (
	CategoryTitle             Category = "Title"
	CategoryTable             Category = "Table"
	CategoryListItem          Category = "ListItem"
	CategoryUncategorizedText Category = "UncategorizedText"
)

// Element is one partitioned unit of a filing's HTML body, in document
// order.
type Element struct {
	Category Category
	Text     string
	HTML     string // populated for Table elements only
}

const leafSelector = "h1,h2,h3,h4,h5,h6,p,li,table,div"

// PartitionHTML flattens a filing's HTML body into a sequence of leaf
// content elements, skipping div elements that themselves enclose another
// matched element so a wrapping div's text is not captured again. Other
// matched tags are not skipped, so text nested inside them (a p inside a
// li or table) is captured once per matched ancestor.
func PartitionHTML(htmlBytes []byte) ([]Element, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBytes))
	if err != nil {
		return nil, err
	}

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var elements []Element
	root.Find(leafSelector).Each(func(_ int, s *goquery.Selection) {
		tag := goquery.NodeName(s)
		if (tag == "div") && s.Find(leafSelector).Length() > 0 {
			return
		}

		text := strings.TrimSpace(s.Text())

		switch tag {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			if text == "" {
				return
			}
			elements = append(elements, Element{Category: CategoryTitle, Text: text})
		case "table":
			outerHTML, _ := goquery.OuterHtml(s)
			elements = append(elements, Element{Category: CategoryTable, Text: text, HTML: outerHTML})
		case "li":
			if text == "" {
				return
			}
			elements = append(elements, Element{Category: CategoryListItem, Text: text})
		default:
			if text == "" {
				return
			}
			elements = append(elements, Element{Category: CategoryUncategorizedText, Text: text})
		}
	})

	return elements, nil
}
