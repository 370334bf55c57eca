package rules

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"sort"

	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/template"
)

type document struct {
	text      string
	metadata  map[string]any
	extracted map[string]string
}

func failed(format string, args ...any) models.ActionResult {
	return models.ActionResult{Success: false, Message: fmt.Sprintf(format, args...)}
}

func (e *Engine) apply(
	ctx context.Context,
	rule *models.DocumentProcessingRule,
	action models.RuleAction,
	doc *document,
) models.ActionResult {
	switch action.Type {
	case models.RuleActionTag:
		return tag(action, doc)
	case models.RuleActionCategorize:
		return categorize(action, doc)
	case models.RuleActionRoute:
		return e.route(ctx, rule, action)
	case models.RuleActionExtractData:
		return extract(action, doc)
	case models.RuleActionNotify:
		return e.notify(ctx, rule, action, doc)
	case models.RuleActionCustom:
		return e.custom(ctx, rule, action)
	default:
		return failed("unknown action type %q", action.Type)
	}
}

// tag merges the tags parameter into metadata.tags without duplicates.
func tag(action models.RuleAction, doc *document) models.ActionResult {
	tags := template.ResolveList(action.Parameters["tags"], doc.metadata)
	if len(tags) == 0 {
		return failed("tag action requires a non-empty tags parameter")
	}

	merged := template.ResolveList(doc.metadata["tags"], nil)
	for _, t := range tags {
		if !slices.Contains(merged, t) {
			merged = append(merged, t)
		}
	}

	doc.metadata["tags"] = merged

	return models.ActionResult{Success: true, Data: merged}
}

func categorize(action models.RuleAction, doc *document) models.ActionResult {
	category, _ := action.Parameters["category"].(string)
	if category == "" {
		return failed("categorize action requires a category parameter")
	}

	doc.metadata["category"] = category

	return models.ActionResult{Success: true, Data: category}
}

// route only records the destination; delivery belongs to the hosting application.
func (e *Engine) route(ctx context.Context, rule *models.DocumentProcessingRule, action models.RuleAction) models.ActionResult {
	destination, _ := action.Parameters["destination"].(string)
	if destination == "" {
		return failed("route action requires a destination parameter")
	}

	e.logger.InfoContext(ctx, "Routing document", "rule_id", rule.ID, "destination", destination)

	return models.ActionResult{Success: true, Message: "routed to " + destination, Data: destination}
}

// extract applies named patterns to the text. The first capture group is kept when the
// pattern has one, the whole match otherwise.
func extract(action models.RuleAction, doc *document) models.ActionResult {
	patterns, err := namedPatterns(action.Parameters["patterns"])
	if err != nil {
		return failed("extract_data action: %v", err)
	}

	found := make(map[string]string)

	for _, p := range patterns {
		match := p.re.FindStringSubmatch(doc.text)
		if match == nil {
			continue
		}

		value := match[0]
		if len(match) > 1 {
			value = match[1]
		}

		found[p.name] = value
		doc.extracted[p.name] = value
	}

	return models.ActionResult{Success: true, Data: found}
}

type namedPattern struct {
	name string
	re   *regexp.Regexp
}

// namedPatterns accepts either a name -> expression map or a list of {name, pattern} objects.
func namedPatterns(raw any) ([]namedPattern, error) {
	sources := make([][2]string, 0)

	switch v := raw.(type) {
	case map[string]any:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}

		sort.Strings(names)

		for _, name := range names {
			expr, _ := v[name].(string)
			sources = append(sources, [2]string{name, expr})
		}
	case map[string]string:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}

		sort.Strings(names)

		for _, name := range names {
			sources = append(sources, [2]string{name, v[name]})
		}
	case []any:
		for _, item := range v {
			entry, ok := item.(map[string]any)
			if !ok {
				return nil, errors.New("pattern entries must be objects with name and pattern")
			}

			name, _ := entry["name"].(string)
			expr, _ := entry["pattern"].(string)
			sources = append(sources, [2]string{name, expr})
		}
	}

	if len(sources) == 0 {
		return nil, errors.New("patterns parameter is required")
	}

	patterns := make([]namedPattern, 0, len(sources))

	for _, source := range sources {
		if source[0] == "" || source[1] == "" {
			return nil, errors.New("every pattern needs a name and an expression")
		}

		re, err := regexp.Compile(source[1])
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", source[0], err)
		}

		patterns = append(patterns, namedPattern{name: source[0], re: re})
	}

	return patterns, nil
}

func (e *Engine) notify(
	ctx context.Context,
	rule *models.DocumentProcessingRule,
	action models.RuleAction,
	doc *document,
) models.ActionResult {
	recipients := template.ResolveList(action.Parameters["recipients"], doc.metadata)
	if len(recipients) == 0 {
		return failed("notify action requires recipients")
	}

	title, _ := action.Parameters["title"].(string)
	if title == "" {
		title = "Documento processado: " + rule.Name
	}

	message, _ := action.Parameters["message"].(string)
	if message == "" {
		message = fmt.Sprintf("A regra %q foi aplicada a um documento.", rule.Name)
	}

	data := map[string]any{"ruleId": rule.ID}

	if include, _ := action.Parameters["includeExtractedData"].(bool); include {
		data["extractedData"] = maps.Clone(doc.extracted)
	}

	priority, _ := action.Parameters["priority"].(string)

	n := models.Notification{
		Title:      template.Interpolate(title, doc.metadata),
		Message:    template.Interpolate(message, doc.metadata),
		Type:       models.NotificationInfo,
		Recipients: recipients,
		Priority:   priority,
		Data:       data,
	}

	if err := e.notifier.Notify(ctx, n); err != nil {
		return failed("notification not delivered: %v", err)
	}

	return models.ActionResult{Success: true, Data: recipients}
}

// custom acknowledges a named action without side effects.
func (e *Engine) custom(ctx context.Context, rule *models.DocumentProcessingRule, action models.RuleAction) models.ActionResult {
	name, _ := action.Parameters["action"].(string)
	if name == "" {
		return failed("custom action requires an action name")
	}

	e.logger.InfoContext(ctx, "Custom rule action", "rule_id", rule.ID, "action", name)

	return models.ActionResult{Success: true, Message: "custom action " + name}
}
