package fetch

import (
	"context"
	"fmt"
	"sort"
)

const datasetLanguages = "fr-en-offre-langues-2d"

const (
	langUAI      = "uai"
	langLanguage = "langues"
	langTeaching = "enseignements"
)

// FetchLanguages downloads the secondary-school language offer and groups
// it per establishment. The source publishes one row per (school, language,
// teaching slot); rows with an unknown teaching slot still prove the
// language exists but land in neither list.
func (r *Runner) FetchLanguages(ctx context.Context) ([]LanguageRecord, int, error) {
	where := fmt.Sprintf("region='%s'", r.region.Name)
	records, err := r.client.FetchAll(ctx, datasetLanguages, where)
	if err != nil {
		return nil, 0, err
	}

	grouped := make(map[string]*LanguageRecord)
	order := make([]string, 0)
	skipped := 0

	for _, rec := range records {
		uai := rec.Str(langUAI)
		language := rec.Str(langLanguage)
		if uai == "" || language == "" {
			skipped++
			continue
		}

		entry, ok := grouped[uai]
		if !ok {
			entry = &LanguageRecord{UAI: uai, LV1: []string{}, LV2: []string{}}
			grouped[uai] = entry
			order = append(order, uai)
		}

		switch rec.Str(langTeaching) {
		case "LV1":
			entry.LV1 = appendUnique(entry.LV1, language)
		case "LV2":
			entry.LV2 = appendUnique(entry.LV2, language)
		}
	}

	sort.Strings(order)
	out := make([]LanguageRecord, 0, len(order))
	for _, uai := range order {
		out = append(out, *grouped[uai])
	}
	return out, skipped, nil
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
