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

// Package xbrl parses XBRL instance documents and their presentation and
// label linkbases, extracting financial facts enriched with section
// hierarchy and human-readable labels.
package xbrl

import (
	"time"

	"github.com/penny-vault/pvdata/internal/model"
)

// namespacePrefixes maps well-known XBRL namespace URIs to the short
// prefixes used throughout fact and concept names.
var namespacePrefixes = map[string]string{
	"http://fasb.org/us-gaap/":             "us-gaap",
	"http://xbrl.sec.gov/dei/":             "dei",
	"http://www.xbrl.org/2003/instance":    "xbrli",
	"http://xbrl.sec.gov/invest/":          "invest",
	"http://xbrl.sec.gov/country/":         "country",
	"http://www.xbrl.org/dtr/type/non-numeric": "nonnum",
}

// CoreConcepts are the US-GAAP concepts given priority during extraction;
// every other concept is still captured but flagged outside this set.
var CoreConcepts = map[string]bool{
	"us-gaap:Assets":                              true,
	"us-gaap:AssetsCurrent":                       true,
	"us-gaap:AssetsNoncurrent":                     true,
	"us-gaap:CashAndCashEquivalentsAtCarryingValue": true,
	"us-gaap:ShortTermInvestments":                  true,
	"us-gaap:AccountsReceivableNetCurrent":          true,
	"us-gaap:InventoryNet":                          true,
	"us-gaap:PropertyPlantAndEquipmentNet":          true,
	"us-gaap:Goodwill":                              true,
	"us-gaap:IntangibleAssetsNetExcludingGoodwill":  true,
	"us-gaap:Liabilities":                           true,
	"us-gaap:LiabilitiesCurrent":                    true,
	"us-gaap:LiabilitiesNoncurrent":                 true,
	"us-gaap:AccountsPayableCurrent":                true,
	"us-gaap:LongTermDebt":                          true,
	"us-gaap:LongTermDebtNoncurrent":                true,
	"us-gaap:ShortTermBorrowings":                   true,
	"us-gaap:StockholdersEquity":                    true,
	"us-gaap:StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest": true,
	"us-gaap:RetainedEarningsAccumulatedDeficit":    true,
	"us-gaap:CommonStockValue":                      true,
	"us-gaap:AdditionalPaidInCapital":                true,
	"us-gaap:TreasuryStockValue":                    true,
	"us-gaap:Revenues":                              true,
	"us-gaap:RevenueFromContractWithCustomerExcludingAssessedTax": true,
	"us-gaap:SalesRevenueNet":                       true,
	"us-gaap:CostOfRevenue":                         true,
	"us-gaap:CostOfGoodsAndServicesSold":             true,
	"us-gaap:GrossProfit":                           true,
	"us-gaap:OperatingExpenses":                     true,
	"us-gaap:SellingGeneralAndAdministrativeExpense": true,
	"us-gaap:ResearchAndDevelopmentExpense":          true,
	"us-gaap:OperatingIncomeLoss":                    true,
	"us-gaap:InterestExpense":                        true,
	"us-gaap:InterestIncome":                         true,
	"us-gaap:IncomeLossFromContinuingOperationsBeforeIncomeTaxesExtraordinaryItemsNoncontrollingInterest": true,
	"us-gaap:IncomeTaxExpenseBenefit":                true,
	"us-gaap:NetIncomeLoss":                          true,
	"us-gaap:NetIncomeLossAttributableToParent":      true,
	"us-gaap:EarningsPerShareBasic":                  true,
	"us-gaap:EarningsPerShareDiluted":                true,
	"us-gaap:CommonStockSharesOutstanding":           true,
	"us-gaap:WeightedAverageNumberOfSharesOutstandingBasic":      true,
	"us-gaap:WeightedAverageNumberOfDilutedSharesOutstanding":    true,
	"us-gaap:NetCashProvidedByUsedInOperatingActivities":         true,
	"us-gaap:NetCashProvidedByUsedInInvestingActivities":         true,
	"us-gaap:NetCashProvidedByUsedInFinancingActivities":         true,
	"us-gaap:DepreciationDepletionAndAmortization":               true,
	"us-gaap:PaymentsToAcquirePropertyPlantAndEquipment":         true,
	"us-gaap:PaymentsForRepurchaseOfCommonStock":                 true,
	"us-gaap:PaymentsOfDividendsCommonStock":                     true,
	"us-gaap:ProceedsFromIssuanceOfLongTermDebt":                 true,
	"us-gaap:RepaymentsOfLongTermDebt":                           true,
	"us-gaap:CommonStockDividendsPerShareDeclared":               true,
	"us-gaap:EffectiveIncomeTaxRateContinuingOperations":         true,
}

// contextInfo is the resolved period/dimension data for one <context>
// element, keyed by its id attribute.
type contextInfo struct {
	IsInstant  bool
	Start      *time.Time
	End        *time.Time
	Dimensions map[string]string
}

// unitInfo is the resolved measure for one <unit> element.
type unitInfo struct {
	Measure string
}

// ConceptHierarchy is one concept's position within a presentation
// linkbase's role (section).
type ConceptHierarchy struct {
	ConceptName   string
	Section       string
	ParentConcept string
	Depth         int
	Order         float64
}

// ParseResult is the outcome of parsing one filing's XBRL document set.
type ParseResult struct {
	Success         bool
	AccessionNumber string
	Facts           []model.Fact
	CoreFacts       []model.Fact
	PeriodEnd       *time.Time
	ErrorMessage    string
	ParseTimeMS     float64
}
