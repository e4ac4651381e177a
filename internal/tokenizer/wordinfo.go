package tokenizer

import (
	"context"
	"strings"

	"github.com/heartmarshall/geotokenizer/internal/domain"
)

// WordTokenInfo reports the tokens of the given words. Words starting with
// '#' are looked up as full names, all others as partial words. Full names
// come first in the result. Meant for debugging.
func (a *NameAnalyzer) WordTokenInfo(ctx context.Context, words []string) ([]domain.WordTokenInfo, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	}

	var fulls, partials []domain.WordTokenInfo
	for _, w := range words {
		if name, ok := strings.CutPrefix(w, "#"); ok {
			fulls = append(fulls, domain.WordTokenInfo{Word: w, Token: a.searchNormalized(name)})
		} else {
			partials = append(partials, domain.WordTokenInfo{Word: w, Token: a.searchNormalized(w)})
		}
	}

	if err := a.fillWordIDs(ctx, domain.TokenTypeFull, fulls); err != nil {
		return nil, err
	}
	if err := a.fillWordIDs(ctx, domain.TokenTypePartial, partials); err != nil {
		return nil, err
	}
	return append(fulls, partials...), nil
}

func (a *NameAnalyzer) fillWordIDs(ctx context.Context, typ domain.TokenType, infos []domain.WordTokenInfo) error {
	if len(infos) == 0 {
		return nil
	}
	tokens := make([]string, 0, len(infos))
	for _, i := range infos {
		tokens = append(tokens, i.Token)
	}
	ids, err := a.store.WordIDs(ctx, typ, tokens)
	if err != nil {
		return err
	}
	for i := range infos {
		if id, ok := ids[infos[i].Token]; ok {
			infos[i].ID = &id
		}
	}
	return nil
}
