package syrotech

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	internalerrors "github.com/rcourtman/syroctl/internal/errors"
)

const opFindAttribute = "find_attribute"

// FindAttributeValue parses html and returns the targetAttr value of the
// first element, in document order, whose selectorAttr equals selectorValue.
// Attribute names are matched case-insensitively, values exactly.
func FindAttributeValue(html, selectorAttr, selectorValue, targetAttr string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", internalerrors.NewRouterError(internalerrors.ErrorTypeMissingElement, opFindAttribute, "",
			fmt.Errorf("parse html: %w", err))
	}

	selectorAttr = strings.ToLower(selectorAttr)
	targetAttr = strings.ToLower(targetAttr)

	var match *goquery.Selection
	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr(selectorAttr); ok && v == selectorValue {
			match = s
			return false
		}
		return true
	})

	if match == nil {
		return "", internalerrors.NewRouterError(internalerrors.ErrorTypeMissingElement, opFindAttribute, "",
			fmt.Errorf("no element with %s=%q", selectorAttr, selectorValue))
	}

	value, ok := match.Attr(targetAttr)
	if !ok {
		return "", internalerrors.NewRouterError(internalerrors.ErrorTypeMissingAttribute, opFindAttribute, "",
			fmt.Errorf("element with %s=%q has no %s attribute", selectorAttr, selectorValue, targetAttr))
	}
	return value, nil
}

// Find applies the selector to html.
func (s Selector) Find(html string) (string, error) {
	return FindAttributeValue(html, s.Attr, s.Value, s.Target)
}
