package dto

// RegisterReq は/auth/registerエンドポイントのリクエストボディを表します。
// timezone は省略可能で、指定する場合はIANAのゾーン名である必要があります。
type RegisterReq struct {
	Email       string `json:"email" binding:"required,email,max=255"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"required,max=255"`
	Timezone    string `json:"timezone" binding:"omitempty,max=64,timezone"`
}
