package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"dhankavach/internal/domain/models"
	"dhankavach/pkg/logger"
)

const trailingPunct = ".,;:!?)'\""

var (
	// 10-digit mobile, optional +91 / 91 / 0 prefix, optional single separators
	phoneRegex = regexp.MustCompile(`(?:(?:\+91|\b91|\b0)[\s-]?[6-9]|\b[6-9])(?:[\s-]?\d){9}\b`)
	upiRegex   = regexp.MustCompile(`[a-zA-Z0-9][a-zA-Z0-9._-]{1,255}@[a-zA-Z][a-zA-Z0-9]{1,63}`)
	urlRegexes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://[^\s<>"'}\]]+`),
		regexp.MustCompile(`(?i)\bwww\.[^\s<>"'}\]]+`),
		regexp.MustCompile(`(?i)\b[a-z0-9][-a-z0-9.]*\.(?:com|net|org|in|co|io|info|biz|xyz|online|site|app|top|click|loan|win|work|link|ly|gl|me|at|gy)\b(?:/[^\s<>"'}\]]*)?`),
	}
)

// Extractor pulls candidate identifiers out of free text and document bytes.
// It is pure: no I/O, safe for concurrent use.
type Extractor struct {
	logger *logger.Logger
}

// NewExtractor creates a new entity extractor
func NewExtractor(log *logger.Logger) *Extractor {
	return &Extractor{
		logger: log.WithComponent("entity-extractor"),
	}
}

type hit struct {
	pos    int
	entity models.Entity
}

// Extract returns the normalized, de-duplicated entities found in text and
// attachments, in order of first appearance. Unrecognized content yields nothing.
func (e *Extractor) Extract(text string, attachments [][]byte) []models.Entity {
	var hits []hit

	offset := 0
	for _, segment := range e.segments(text, attachments) {
		hits = append(hits, scanText(segment, offset)...)
		offset += len(segment) + 1
	}

	for i, att := range attachments {
		if len(att) == 0 {
			continue
		}
		sum := sha256.Sum256(att)
		hits = append(hits, hit{
			pos:    offset + i,
			entity: models.Entity{ID: hex.EncodeToString(sum[:]), Kind: models.EntityKindDocHash},
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	seen := make(map[string]bool, len(hits))
	entities := make([]models.Entity, 0, len(hits))
	for _, h := range hits {
		key := string(h.entity.Kind) + "|" + h.entity.ID
		if h.entity.ID == "" || seen[key] {
			continue
		}
		seen[key] = true
		entities = append(entities, h.entity)
	}

	e.logger.Debug().Int("entities", len(entities)).Int("attachments", len(attachments)).Msg("extracted entities")
	return entities
}

// segments returns the NFC-normalized text followed by every attachment that is readable text
func (e *Extractor) segments(text string, attachments [][]byte) []string {
	out := []string{norm.NFC.String(text)}
	for i, att := range attachments {
		if len(att) == 0 {
			continue
		}
		if !utf8.Valid(att) {
			e.logger.Debug().Int("attachment", i).Msg("attachment is not text, fingerprint only")
			continue
		}
		out = append(out, norm.NFC.String(string(att)))
	}
	return out
}

func scanText(text string, offset int) []hit {
	var hits []hit

	for _, loc := range phoneRegex.FindAllStringIndex(text, -1) {
		phone := NormalizePhone(text[loc[0]:loc[1]])
		if !IsIndianMobile(phone) {
			continue
		}
		hits = append(hits, hit{offset + loc[0], models.Entity{ID: phone, Kind: models.EntityKindPhone, Raw: text[loc[0]:loc[1]]}})
	}

	for _, loc := range upiRegex.FindAllStringIndex(text, -1) {
		if isEmailSuffix(text, loc[1]) {
			continue
		}
		raw := text[loc[0]:loc[1]]
		hits = append(hits, hit{offset + loc[0], models.Entity{ID: NormalizeUPI(raw), Kind: models.EntityKindUPI, Raw: raw}})
	}

	for _, re := range urlRegexes {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if loc[0] > 0 && text[loc[0]-1] == '@' {
				continue // domain part of an e-mail or UPI handle
			}
			raw := strings.TrimRight(text[loc[0]:loc[1]], trailingPunct)
			if strings.Contains(raw, "@") {
				continue
			}
			hits = append(hits, hit{offset + loc[0], models.Entity{ID: NormalizeURL(raw), Kind: models.EntityKindURL, Raw: raw}})
		}
	}

	for _, loc := range brandRegex.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		hits = append(hits, hit{offset + loc[0], models.Entity{ID: NormalizeBrand(raw), Kind: models.EntityKindBankName, Raw: raw}})
	}
	for _, alias := range brandScriptAliases {
		if idx := strings.Index(text, alias); idx >= 0 {
			hits = append(hits, hit{offset + idx, models.Entity{ID: NormalizeBrand(alias), Kind: models.EntityKindBankName, Raw: alias}})
		}
	}

	return hits
}

// isEmailSuffix reports whether the handle ending at end continues as a dotted domain
func isEmailSuffix(text string, end int) bool {
	return end+1 < len(text) && text[end] == '.' && isLetter(text[end+1])
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
