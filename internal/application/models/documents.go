package models

import (
	"time"

	id "hrportal/pkg/domain"
)

// Slot names a position in a DocumentSet.
type Slot string

const (
	SlotResume            Slot = "resume"
	SlotApplicationLetter Slot = "applicationLetter"
	SlotSupportingDocs    Slot = "supportingDocs"
	SlotValidID           Slot = "validId"
	SlotPortfolio         Slot = "portfolio"
	SlotCertificates      Slot = "certificates"
	SlotContract          Slot = "contract"
	SlotSignedContract    Slot = "signedContract"
)

// AllSlots lists every slot in display order.
var AllSlots = []Slot{
	SlotResume,
	SlotApplicationLetter,
	SlotSupportingDocs,
	SlotValidID,
	SlotPortfolio,
	SlotCertificates,
	SlotContract,
	SlotSignedContract,
}

// RequestedSlots are collected once an application is shortlisted.
var RequestedSlots = []Slot{SlotValidID, SlotPortfolio, SlotCertificates}

func (s Slot) IsValid() bool {
	for _, known := range AllSlots {
		if s == known {
			return true
		}
	}
	return false
}

// IsMulti reports whether the slot holds an ordered sequence of documents.
func (s Slot) IsMulti() bool {
	return s == SlotSupportingDocs || s == SlotCertificates
}

func (s Slot) String() string { return string(s) }

// Document is an immutable reference to a stored blob.
type Document struct {
	BlobID      id.BlobID `json:"fileId"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"mimeType"`
	Checksum    string    `json:"checksum,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// DocumentSet is a plain container of slots. It enforces nothing about when a
// slot may be written; see CheckGate.
type DocumentSet struct {
	Resume            *Document  `json:"resume,omitempty"`
	ApplicationLetter *Document  `json:"applicationLetter,omitempty"`
	SupportingDocs    []Document `json:"supportingDocs,omitempty"`
	ValidID           *Document  `json:"validId,omitempty"`
	Portfolio         *Document  `json:"portfolio,omitempty"`
	Certificates      []Document `json:"certificates,omitempty"`
	Contract          *Document  `json:"contract,omitempty"`
	SignedContract    *Document  `json:"signedContract,omitempty"`
}

func (d *DocumentSet) single(slot Slot) **Document {
	switch slot {
	case SlotResume:
		return &d.Resume
	case SlotApplicationLetter:
		return &d.ApplicationLetter
	case SlotValidID:
		return &d.ValidID
	case SlotPortfolio:
		return &d.Portfolio
	case SlotContract:
		return &d.Contract
	case SlotSignedContract:
		return &d.SignedContract
	}
	return nil
}

func (d *DocumentSet) multi(slot Slot) *[]Document {
	switch slot {
	case SlotSupportingDocs:
		return &d.SupportingDocs
	case SlotCertificates:
		return &d.Certificates
	}
	return nil
}

// Get returns the documents in a slot. Single slots yield at most one.
func (d DocumentSet) Get(slot Slot) []Document {
	if m := d.multi(slot); m != nil {
		return append([]Document(nil), (*m)...)
	}
	if p := d.single(slot); p != nil && *p != nil {
		return []Document{**p}
	}
	return nil
}

// Has reports whether the slot holds at least one document.
func (d DocumentSet) Has(slot Slot) bool {
	return len(d.Get(slot)) > 0
}

// Replace swaps the slot's content for docs and returns what was there before.
// Single slots keep only the first document.
func (d *DocumentSet) Replace(slot Slot, docs []Document) []Document {
	previous := d.Get(slot)
	if m := d.multi(slot); m != nil {
		*m = append([]Document(nil), docs...)
		return previous
	}
	if p := d.single(slot); p != nil {
		if len(docs) == 0 {
			*p = nil
		} else {
			doc := docs[0]
			*p = &doc
		}
	}
	return previous
}

// BlobIDs lists every referenced blob.
func (d DocumentSet) BlobIDs() []id.BlobID {
	var ids []id.BlobID
	for _, slot := range AllSlots {
		for _, doc := range d.Get(slot) {
			ids = append(ids, doc.BlobID)
		}
	}
	return ids
}

// Find locates the slot that references blobID.
func (d DocumentSet) Find(blobID id.BlobID) (Slot, Document, bool) {
	for _, slot := range AllSlots {
		for _, doc := range d.Get(slot) {
			if doc.BlobID == blobID {
				return slot, doc, true
			}
		}
	}
	return "", Document{}, false
}

// Clone returns a deep copy.
func (d DocumentSet) Clone() DocumentSet {
	var out DocumentSet
	for _, slot := range AllSlots {
		if docs := d.Get(slot); len(docs) > 0 {
			out.Replace(slot, docs)
		}
	}
	return out
}
