package filing

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"mesocratic/models"
)

var (
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	amountPattern  = regexp.MustCompile(`^\d+\.\d{2}$`)
	einPattern     = regexp.MustCompile(`^\d{9}$`)
)

// ValidationResult is the outcome of validating a Form 8872 document.
// Errors name the offending element, e.g. ScheduleA[2].ContributionDate.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

type fieldRule struct {
	name     string
	required bool
	maxLen   int
	kind     fieldKind
}

type fieldKind int

const (
	kindText fieldKind = iota
	kindDate
	kindAmount
	kindEIN
)

var topLevelRules = []fieldRule{
	{name: "OrganizationName", required: true, maxLen: maxOrganizationName},
	{name: "EIN", required: true, kind: kindEIN},
	{name: "CustodianName", required: true, maxLen: maxCustodianName},
	{name: "PeriodBeginDate", required: true, kind: kindDate},
	{name: "PeriodEndDate", required: true, kind: kindDate},
	{name: "TotalScheduleAContributions", required: true, kind: kindAmount},
	{name: "TotalScheduleBExpenditures", required: true, kind: kindAmount},
}

var addressRules = []fieldRule{
	{name: "AddressLine1", maxLen: maxAddressLine},
	{name: "AddressLine2", maxLen: maxAddressLine},
	{name: "City", maxLen: maxCity},
	{name: "State", maxLen: maxState},
	{name: "ZIPCode", maxLen: maxZIP},
}

var scheduleARules = []fieldRule{
	{name: "ContributorName", required: true, maxLen: maxPartyName},
	{name: "ContributorAddressLine1", maxLen: maxAddressLine},
	{name: "ContributorCity", maxLen: maxCity},
	{name: "ContributorState", maxLen: maxState},
	{name: "ContributorZIPCode", maxLen: maxZIP},
	{name: "ContributorEmployer", maxLen: maxEmployer},
	{name: "ContributorOccupation", maxLen: maxOccupation},
	{name: "ContributionAmount", required: true, kind: kindAmount},
	{name: "AggregateContributionsYTD", kind: kindAmount},
	{name: "ContributionDate", required: true, kind: kindDate},
}

var scheduleBRules = []fieldRule{
	{name: "RecipientName", required: true, maxLen: maxPartyName},
	{name: "RecipientAddressLine1", maxLen: maxAddressLine},
	{name: "RecipientCity", maxLen: maxCity},
	{name: "RecipientState", maxLen: maxState},
	{name: "RecipientZIPCode", maxLen: maxZIP},
	{name: "ExpenditureAmount", required: true, kind: kindAmount},
	{name: "ExpenditureDate", required: true, kind: kindDate},
	{name: "ExpenditurePurpose", maxLen: maxPurpose},
}

var (
	filingTypeFlagNames = []string{"InitialReport", "AmendedReport", "FinalReport"}
	reportTypeFlagNames = []string{"FirstQuarterReport", "SecondQuarterReport", "ThirdQuarterReport", "YearEndReport", "MonthlyReport"}
)

// xmlNode is a minimal element tree built from the raw token stream
type xmlNode struct {
	name     string
	text     strings.Builder
	children []*xmlNode
}

func (n *xmlNode) child(name string) *xmlNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (n *xmlNode) all(name string) []*xmlNode {
	var out []*xmlNode
	for _, c := range n.children {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

func (n *xmlNode) value() string {
	return strings.TrimSpace(n.text.String())
}

// ValidateIRS8872 re-parses a generated document and checks it against the
// Form 8872 field constraints. Field problems are reported in the result;
// only a missing or foreign root element is returned as an error.
func ValidateIRS8872(doc []byte) (*ValidationResult, error) {
	root, parseErr := parseTree(doc)
	if root == nil {
		if parseErr == nil {
			parseErr = errors.New("document has no root element")
		}
		return nil, fmt.Errorf("%w: %v", models.ErrStructuralXML, parseErr)
	}
	if root.name != "FORM8872" {
		return nil, fmt.Errorf("%w: unexpected root element %q", models.ErrStructuralXML, root.name)
	}

	result := &ValidationResult{}
	if parseErr != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("malformed document: %v", parseErr))
	}

	checkFields(result, "", root, topLevelRules)
	if addr := root.child("MailingAddress"); addr != nil {
		checkFields(result, "MailingAddress.", addr, addressRules)
	}
	checkOneHot(result, root, "FilingType", filingTypeFlagNames)
	checkOneHot(result, root, "ReportType", reportTypeFlagNames)

	for i, entry := range root.all("ScheduleA") {
		checkFields(result, fmt.Sprintf("ScheduleA[%d].", i), entry, scheduleARules)
	}
	for i, entry := range root.all("ScheduleB") {
		checkFields(result, fmt.Sprintf("ScheduleB[%d].", i), entry, scheduleBRules)
	}

	result.Valid = len(result.Errors) == 0
	return result, nil
}

// parseTree returns the root element and the first syntax error, if any.
// A document that breaks mid-stream still yields the partial tree.
func parseTree(doc []byte) (*xmlNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	var root *xmlNode
	var stack []*xmlNode

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			if len(stack) > 0 {
				return root, fmt.Errorf("unclosed element %q", stack[len(stack)-1].name)
			}
			return root, nil
		}
		if err != nil {
			return root, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &xmlNode{name: t.Name.Local}
			if len(stack) == 0 {
				if root != nil {
					return root, fmt.Errorf("unexpected second root element %q", node.name)
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
}

func checkFields(result *ValidationResult, prefix string, parent *xmlNode, rules []fieldRule) {
	for _, rule := range rules {
		path := prefix + rule.name
		node := parent.child(rule.name)
		if node == nil || node.value() == "" {
			if rule.required {
				result.Errors = append(result.Errors, path+" is required")
			}
			continue
		}

		v := node.value()
		if rule.maxLen > 0 && utf8.RuneCountInString(v) > rule.maxLen {
			result.Errors = append(result.Errors, fmt.Sprintf("%s exceeds %d characters", path, rule.maxLen))
		}
		switch rule.kind {
		case kindDate:
			if len(v) != 10 || !isoDatePattern.MatchString(v) {
				result.Errors = append(result.Errors, fmt.Sprintf("%s must be YYYY-MM-DD, got %q", path, v))
			}
		case kindAmount:
			if !amountPattern.MatchString(v) {
				result.Errors = append(result.Errors, fmt.Sprintf("%s must be a dollar amount with two decimals, got %q", path, v))
			}
		case kindEIN:
			if !einPattern.MatchString(v) {
				result.Errors = append(result.Errors, fmt.Sprintf("%s must be 9 digits", path))
			}
		}
	}
}

func checkOneHot(result *ValidationResult, root *xmlNode, name string, flags []string) {
	group := root.child(name)
	if group == nil {
		result.Errors = append(result.Errors, name+" is required")
		return
	}
	set := 0
	for _, flag := range flags {
		node := group.child(flag)
		if node == nil {
			continue
		}
		switch node.value() {
		case "true":
			set++
		case "false":
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("%s.%s must be true or false, got %q", name, flag, node.value()))
		}
	}
	if set != 1 {
		result.Errors = append(result.Errors, fmt.Sprintf("%s must have exactly one flag set, found %d", name, set))
	}
}
