package domain

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"not null" json:"-"`
	Tasks        []Task `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
