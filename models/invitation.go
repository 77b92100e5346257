package models

const InvitationTable = "invitations"

type Invitation struct {
	ID            string `gorm:"type:uuid;primaryKey" json:"id"`
	AppointmentID string `gorm:"type:uuid;index;not null" json:"appointment_id"`
	Used          bool   `gorm:"not null;default:false" json:"used"`
	ShortURL      string `gorm:"uniqueIndex;not null" json:"short_url"`

	// 只用于建外键，删除预约时级联删除邀请
	Appointment *Appointment `gorm:"foreignKey:AppointmentID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Invitation) TableName() string { return InvitationTable }

// NewInvitation 生成接口的返回项
type NewInvitation struct {
	ID            string `json:"id"`
	AppointmentID string `json:"appointment_id"`
	ShortURL      string `json:"short_url"`
}

func (i Invitation) Public() NewInvitation {
	return NewInvitation{ID: i.ID, AppointmentID: i.AppointmentID, ShortURL: i.ShortURL}
}

// AppointmentWithInvitation is the joined row read when an invitation is redeemed.
type AppointmentWithInvitation struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointment_id"`
	Used          bool      `json:"used"`
	ShortURL      string    `json:"short_url"`
	Format        Format    `json:"format"`
	Address       *string   `json:"address"`
	Link          *string   `json:"link"`
	Date          NaiveTime `json:"date"`
}
