package controllers

type CreateArticleRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type LikeRequest struct {
	UserID string `json:"userId" binding:"required"`
}
