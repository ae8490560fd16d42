package helm

import "context"

// helmHistoryItem mirrors one element of `helm history -o json`. Unlike
// list output, revision is a number here.
type helmHistoryItem struct {
	Revision    int    `json:"revision"`
	Updated     string `json:"updated"`
	Status      string `json:"status"`
	Chart       string `json:"chart"`
	AppVersion  string `json:"app_version"`
	Description string `json:"description"`
}

// History returns the full revision list of a release.
func (m *Manager) History(ctx context.Context, namespace, name string) ([]Revision, error) {
	if err := m.checkNamespace(namespace); err != nil {
		return nil, err
	}
	if err := m.checkName(name); err != nil {
		return nil, err
	}

	args := []string{"history", name, "--namespace", namespace, "--output", "json"}
	res, err := m.runner.Run(ctx, m.binary, args, nil, m.timeout)
	if err != nil {
		return nil, asNotFound(err, "release", name)
	}

	var items []helmHistoryItem
	if err := decodeJSON(res.Stdout, &items); err != nil {
		return nil, err
	}
	out := make([]Revision, 0, len(items))
	for _, it := range items {
		out = append(out, Revision{
			Revision:    it.Revision,
			Updated:     parseHelmTime(it.Updated),
			Status:      parseStatus(it.Status),
			Chart:       it.Chart,
			AppVersion:  it.AppVersion,
			Description: it.Description,
		})
	}
	return out, nil
}
