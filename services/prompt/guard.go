package prompt

import (
	"fmt"
	"regexp"

	"github.com/upb/route-optimizer/services"
)

// InjectionType categorizes instruction-like text found in a cargo field
type InjectionType string

const (
	InjectionTypeInstructionOverride InjectionType = "instruction_override"
	InjectionTypeSystemPromptLeak    InjectionType = "system_prompt_leak"
	InjectionTypeRoleManipulation    InjectionType = "role_manipulation"
	InjectionTypeJailbreak           InjectionType = "jailbreak"
	InjectionTypeDelimiterAttack     InjectionType = "delimiter_attack"
	InjectionTypeEncodingAttack      InjectionType = "encoding_attack"
)

// BlockConfidence is the minimum confidence at which a detection rejects the prompt
const BlockConfidence = 0.8

// InjectionDetection is one suspicious match inside a field value
type InjectionDetection struct {
	Type       InjectionType
	Confidence float64
	StartPos   int
	EndPos     int
}

type injectionRule struct {
	kind       InjectionType
	confidence float64
	patterns   []*regexp.Regexp
}

var injectionRules = []injectionRule{
	{
		kind:       InjectionTypeInstructionOverride,
		confidence: 0.9,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)ignore\s+(previous|all|above|prior)\s+(instructions?|prompts?|rules|constraints?)`),
			regexp.MustCompile(`(?i)disregard\s+(all|previous|above|any)\s+(instructions?|rules|commands?|constraints?)`),
			regexp.MustCompile(`(?i)override\s+(all|previous|system)\s+(instructions?|rules|settings?)`),
			regexp.MustCompile(`(?i)forget\s+(everything|all\s+previous|what\s+you\s+learned)`),
		},
	},
	{
		kind:       InjectionTypeSystemPromptLeak,
		confidence: 0.9,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(show|reveal|print|repeat)\s+(me\s+)?(your|the)\s+(system|original|hidden)\s+(prompt|instructions?)`),
		},
	},
	{
		kind:       InjectionTypeRoleManipulation,
		confidence: 0.85,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(you|your)\s+(are|role|identity)\s+(now|is|changed)`),
			regexp.MustCompile(`(?i)assume\s+(the\s+)?(role|identity)\s+of`),
			regexp.MustCompile(`(?i)from\s+now\s+on[,]?\s+(you|your)\s+(are|will)`),
			regexp.MustCompile(`(?i)new\s+(instructions?|role|personality)`),
		},
	},
	{
		kind:       InjectionTypeJailbreak,
		confidence: 0.95,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bDAN\s+mode`),
			regexp.MustCompile(`(?i)developer\s+mode`),
			regexp.MustCompile(`(?i)jailbreak`),
			regexp.MustCompile(`(?i)without\s+(any|ethical|moral)\s+(restrictions?|limitations?)`),
		},
	},
	{
		kind:       InjectionTypeDelimiterAttack,
		confidence: 0.8,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\[/?(SYSTEM|USER|ASSISTANT)\]`),
			regexp.MustCompile(`<\|(system|user|assistant|end)\|>`),
			regexp.MustCompile(`###\s*(SYSTEM|USER|ASSISTANT|INSTRUCTION)`),
		},
	},
	{
		// Reported but below the blocking threshold.
		kind:       InjectionTypeEncodingAttack,
		confidence: 0.7,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)base64\s*[:\s=]\s*[A-Za-z0-9+/]{20,}={0,2}`),
			regexp.MustCompile(`(?:\\x[0-9a-fA-F]{2}){10,}`),
		},
	},
}

// DetectInjections returns every rule match found in text
func DetectInjections(text string) []InjectionDetection {
	var detections []InjectionDetection
	for _, rule := range injectionRules {
		for _, pattern := range rule.patterns {
			for _, match := range pattern.FindAllStringIndex(text, -1) {
				detections = append(detections, InjectionDetection{
					Type:       rule.kind,
					Confidence: rule.confidence,
					StartPos:   match[0],
					EndPos:     match[1],
				})
			}
		}
	}
	return detections
}

// IsInjectionAttempt reports whether text carries a blocking detection
func IsInjectionAttempt(text string) bool {
	for _, d := range DetectInjections(text) {
		if d.Confidence >= BlockConfidence {
			return true
		}
	}
	return false
}

// ScreenField rejects a caller-supplied field value that reads like an
// instruction to the model. The returned error is a prompt DomainError.
func ScreenField(field, value string) error {
	if value == "" {
		return nil
	}
	for _, d := range DetectInjections(value) {
		if d.Confidence >= BlockConfidence {
			return services.NewDomainError(
				services.ErrorTypePrompt,
				fmt.Sprintf("%s rejected: %s (confidence: %.2f)", field, d.Type, d.Confidence),
				nil,
			).WithDetail("field", field).WithDetail("injection_type", string(d.Type))
		}
	}
	return nil
}
