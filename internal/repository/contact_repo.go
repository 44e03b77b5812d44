package repository

import (
	"github.com/quangtn/voicelink/internal/model"
	"gorm.io/gorm"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(contact *model.Contact) error {
	return r.db.Create(contact).Error
}

func (r *ContactRepository) List() ([]model.Contact, error) {
	var contacts []model.Contact
	err := r.db.Order("favorite desc, name asc").Find(&contacts).Error
	return contacts, err
}

func (r *ContactRepository) FindByPeerID(peerID string) (*model.Contact, error) {
	var contact model.Contact
	if err := r.db.Where("peer_id = ?", peerID).First(&contact).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *ContactRepository) Update(contact *model.Contact) error {
	return r.db.Save(contact).Error
}

func (r *ContactRepository) Delete(id uint) error {
	return r.db.Delete(&model.Contact{}, id).Error
}
