package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/DevN0mad/OpenProjectTools/internal/models"
)

// defaultPageSize размер страницы, пока сервер не объявил свой.
const defaultPageSize = 100

// getPaginated выгружает коллекцию целиком, увеличивая offset на размер
// страницы, пока число собранных элементов не достигнет заявленного total.
// Порядок элементов сохраняется как в ответах сервера. Ошибка любой
// страницы прерывает выгрузку без частичного результата.
func (s *OpenProjectService) getPaginated(ctx context.Context, path string, query url.Values) ([]json.RawMessage, error) {
	pageSize := s.opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var all []json.RawMessage
	offset := 0
	page := 1

	for {
		s.logger.Debug("Fetching page", "path", path, "page", page, "offset", offset)

		params := url.Values{}
		for k, vs := range query {
			params[k] = vs
		}
		params.Set("pageSize", fmt.Sprintf("%d", pageSize))
		params.Set("offset", fmt.Sprintf("%d", offset))

		raw, err := s.Request(ctx, http.MethodGet, withQuery(path, params), nil)
		if err != nil {
			return nil, err
		}

		if !models.IsCollection(raw) {
			return nil, NewTransportError(fmt.Errorf("response for %s is not a collection", path))
		}

		var collection models.Collection
		if err := json.Unmarshal(raw, &collection); err != nil {
			return nil, NewTransportError(fmt.Errorf("decode collection page: %w", err))
		}

		if collection.PageSize > 0 {
			pageSize = collection.PageSize
		}

		all = append(all, collection.Embedded.Elements...)

		s.logger.Debug("Page received",
			"path", path,
			"page", page,
			"on_page", len(collection.Embedded.Elements),
			"total", collection.Total)

		if len(all) >= collection.Total {
			break
		}

		// Сервер заявил больше, чем отдаёт: пустая страница останавливает цикл.
		if len(collection.Embedded.Elements) == 0 {
			s.logger.Warn("Pagination stopped on empty page",
				"path", path,
				"collected", len(all),
				"declared_total", collection.Total)
			break
		}

		offset += pageSize
		page++
	}

	return all, nil
}
