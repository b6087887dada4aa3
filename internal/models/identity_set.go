package models

import (
	"encoding/json"
	"sort"
)

// IdentitySet 点赞者集合。序列化为排序后的数组，数组顺序没有语义
type IdentitySet map[string]struct{}

func NewIdentitySet(ids ...string) IdentitySet {
	s := make(IdentitySet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IdentitySet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IdentitySet) Add(id string)    { s[id] = struct{}{} }
func (s IdentitySet) Remove(id string) { delete(s, id) }
func (s IdentitySet) Len() int         { return len(s) }

func (s IdentitySet) Clone() IdentitySet {
	cp := make(IdentitySet, len(s))
	for id := range s {
		cp[id] = struct{}{}
	}
	return cp
}

// Slice 返回排序后的成员列表
func (s IdentitySet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s IdentitySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON 接受数组（重复项会被合并）或 null
func (s *IdentitySet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIdentitySet(ids...)
	return nil
}
