package models

import (
	"fmt"
	"time"
)

// ChannelKind, kanalın türünü temsil eder.
// Voice türü rezervedir — veri modelinde taşınır ama hiçbir bileşen
// ses trafiği üretmez.
type ChannelKind string

const (
	ChannelKindText         ChannelKind = "text"
	ChannelKindAnnouncement ChannelKind = "announcement"
	ChannelKindVoice        ChannelKind = "voice"
)

// RoleSet, bir permission slotuna atanmış rol isimleri kümesi.
// Slice olarak tutulur (JSON'a dizi olarak serialize olur), üyelik
// kontrolü Contains ile yapılır — küme küçüktür (en fazla 3 rol).
type RoleSet []Role

// Contains, verilen rolün kümede olup olmadığını döner.
func (s RoleSet) Contains(role Role) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}

// ChannelPermissions, kanalın read/write/admin yetki kümeleri.
// Yetki kontrolünün tek kaynağı directory paketidir — ekran kodlarına
// dağılmış ad hoc membership kontrolleri burada merkezileşir.
type ChannelPermissions struct {
	Read  RoleSet `json:"read"`
	Write RoleSet `json:"write"`
	Admin RoleSet `json:"admin"`
}

// Channel, isimli ve yetkilendirilmiş bir mesaj akışını temsil eder.
// Category boş string ise kanal "kategorisiz"dir — sidebar'da başlıksız,
// en üstte gruplanır.
//
// Invariant: IsPrivate=true ise Read kümesi tüm rollerin strict subset'i
// olmalıdır (herkese açık bir private kanal çelişkidir).
//
// Kanallar administratif bir aksiyonla oluşturulur (çekirdek kapsamı dışı);
// çekirdek sadece listeler ve filtreler.
type Channel struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description *string            `json:"description"`
	Kind        ChannelKind        `json:"kind"`
	Category    string             `json:"category"`
	Permissions ChannelPermissions `json:"permissions"`
	IsPrivate   bool               `json:"is_private"`
	Members     []string           `json:"members"` // üye kullanıcı ID'leri
	CreatedAt   time.Time          `json:"created_at"`
	CreatedBy   string             `json:"created_by"`
}

// Validate, kanal kaydının invariant'larını kontrol eder.
// Seed/migration verisi ve repository Create yolunda kullanılır.
func (c *Channel) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("channel id is required")
	}
	if c.Name == "" {
		return fmt.Errorf("channel name is required")
	}
	switch c.Kind {
	case ChannelKindText, ChannelKindAnnouncement, ChannelKindVoice:
	default:
		return fmt.Errorf("invalid channel kind: %s", c.Kind)
	}
	for _, set := range []RoleSet{c.Permissions.Read, c.Permissions.Write, c.Permissions.Admin} {
		for _, r := range set {
			if !r.Valid() {
				return fmt.Errorf("unknown role in permission set: %s", r)
			}
		}
	}
	// Private kanal read kümesi tüm rollerin strict subset'i olmalı
	if c.IsPrivate && len(c.Permissions.Read) >= len(AllRoles) {
		return fmt.Errorf("private channel must restrict read access to a subset of roles")
	}
	return nil
}
