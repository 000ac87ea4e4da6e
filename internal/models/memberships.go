package models

// Memberships хранит множество планов подписчика.
// Ключ множества - ID плана, порядок добавления сохраняется.
// Нулевое значение готово к использованию.
type Memberships struct {
	order []Plan
	ids   map[int64]struct{}
}

// NewMemberships создаёт множество из переданных планов, дубликаты отбрасываются.
func NewMemberships(plans ...Plan) Memberships {
	var m Memberships
	for _, p := range plans {
		m.Add(p)
	}
	return m
}

// Add добавляет план. Возвращает false, если план уже был в множестве.
func (m *Memberships) Add(p Plan) bool {
	if m.ids == nil {
		m.ids = make(map[int64]struct{})
	}
	if _, ok := m.ids[p.ID]; ok {
		return false
	}
	m.ids[p.ID] = struct{}{}
	m.order = append(m.order, p)
	return true
}

// Remove удаляет план по ID. Удаление отсутствующего плана ничего не делает.
func (m *Memberships) Remove(planID int64) bool {
	if _, ok := m.ids[planID]; !ok {
		return false
	}
	delete(m.ids, planID)
	for i, p := range m.order {
		if p.ID == planID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear удаляет все планы и возвращает их в порядке добавления.
func (m *Memberships) Clear() []Plan {
	removed := m.order
	m.order = nil
	m.ids = nil
	return removed
}

// Contains проверяет членство по ID плана.
func (m Memberships) Contains(planID int64) bool {
	_, ok := m.ids[planID]
	return ok
}

// Has проверяет членство по имени плана.
func (m Memberships) Has(name string) bool {
	for _, p := range m.order {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Plans возвращает копию списка планов в порядке добавления.
func (m Memberships) Plans() []Plan {
	out := make([]Plan, len(m.order))
	copy(out, m.order)
	return out
}

// Names возвращает имена планов в порядке добавления.
func (m Memberships) Names() []string {
	names := make([]string, 0, len(m.order))
	for _, p := range m.order {
		names = append(names, p.Name)
	}
	return names
}

func (m Memberships) Len() int {
	return len(m.order)
}
