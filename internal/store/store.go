package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"onebite/internal/models"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrForbidden       = errors.New("not the author")
)

// Store 持有全部帖子与评论。每个导出方法都是一个原子操作，
// 返回值均为副本，调用方无法绕过锁修改内部状态。
type Store struct {
	mu    sync.RWMutex
	posts []*models.Post // 最新的在前
	byID  map[int]*models.Post
	maxID int
	now   func() time.Time
}

func New() *Store {
	return &Store{
		byID: make(map[int]*models.Post),
		now:  time.Now,
	}
}

// Load 用持久化快照替换当前内容，posts 按展示顺序（最新在前）给出
func (s *Store) Load(posts []models.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.posts = make([]*models.Post, 0, len(posts))
	s.byID = make(map[int]*models.Post, len(posts))
	s.maxID = 0
	for i := range posts {
		p := posts[i].Clone()
		normalize(&p)
		s.posts = append(s.posts, &p)
		s.byID[p.ID] = &p
		if p.ID > s.maxID {
			s.maxID = p.ID
		}
	}
}

// normalize 修复旧数据：缺失的集合、点赞数与集合不一致、评论计数器缺失
func normalize(p *models.Post) {
	if p.LikedBy == nil {
		p.LikedBy = models.NewIdentitySet()
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	p.Likes = p.LikedBy.Len()
	maxID := 0
	for _, c := range p.Comments {
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	if p.NextCommentID <= maxID {
		p.NextCommentID = maxID + 1
	}
}

// AppendPost 新帖插入最前。帖子不可删除，所以编号即 数量+1；
// 取已有最大编号 +1 是为了兼容带空洞的旧数据
func (s *Store) AppendPost(content, imageURL, author string) models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.maxID++
	p := &models.Post{
		ID:             s.maxID,
		Content:        content,
		ImageURL:       imageURL,
		CreatedAt:      s.now(),
		LikedBy:        models.NewIdentitySet(),
		Comments:       []models.Comment{},
		AuthorIdentity: author,
		NextCommentID:  1,
	}
	s.posts = append([]*models.Post{p}, s.posts...)
	s.byID[p.ID] = p
	return p.Clone()
}

// GetPost 详情读取，同时浏览量 +1，因此与写操作一样持有写锁
func (s *Store) GetPost(id int) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return models.Post{}, ErrPostNotFound
	}
	p.Views++
	return p.Clone(), nil
}

// Peek 只读查询，不计浏览量
func (s *Store) Peek(id int) (models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return models.Post{}, ErrPostNotFound
	}
	return p.Clone(), nil
}

// ToggleLike 已点赞则取消，否则点赞。返回新的点赞数和当前是否处于点赞状态
func (s *Store) ToggleLike(id int, identity string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return 0, false, ErrPostNotFound
	}
	liked := !p.LikedBy.Has(identity)
	if liked {
		p.LikedBy.Add(identity)
	} else {
		p.LikedBy.Remove(identity)
	}
	p.Likes = p.LikedBy.Len()
	return p.Likes, liked, nil
}

func (s *Store) AddComment(id int, text, author string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return models.Comment{}, ErrPostNotFound
	}
	c := models.Comment{
		ID:             p.NextCommentID,
		Text:           text,
		CreatedAt:      s.now(),
		AuthorIdentity: author,
	}
	p.NextCommentID++
	p.Comments = append(p.Comments, c)
	return c.Clone(), nil
}

// findComment 需在持有锁时调用
func (s *Store) findComment(postID, commentID int) (*models.Post, int, error) {
	p, ok := s.byID[postID]
	if !ok {
		return nil, -1, ErrPostNotFound
	}
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			return p, i, nil
		}
	}
	return p, -1, ErrCommentNotFound
}

// CommentAuthor 只读查询评论作者
func (s *Store) CommentAuthor(postID, commentID int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, i, err := s.findComment(postID, commentID)
	if err != nil {
		return "", err
	}
	return p.Comments[i].AuthorIdentity, nil
}

// DeleteComment 仅作者本人可删除，其余评论不重新编号
func (s *Store) DeleteComment(postID, commentID int, requester string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, i, err := s.findComment(postID, commentID)
	if err != nil {
		return err
	}
	if p.Comments[i].AuthorIdentity != requester {
		return ErrForbidden
	}
	p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
	return nil
}

// UpdateComment 仅作者本人可编辑。新内容的审核由调用方在此之前完成
func (s *Store) UpdateComment(postID, commentID int, text, requester string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, i, err := s.findComment(postID, commentID)
	if err != nil {
		return models.Comment{}, err
	}
	c := &p.Comments[i]
	if c.AuthorIdentity != requester {
		return models.Comment{}, ErrForbidden
	}
	now := s.now()
	c.Text = text
	c.Edited = true
	c.EditedAt = &now
	return c.Clone(), nil
}

// Search 内容子串匹配（不区分大小写），保持当前排序。空查询返回空结果
func (s *Store) Search(query string) []models.Post {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []models.Post{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Post, 0)
	for _, p := range s.posts {
		if strings.Contains(strings.ToLower(p.Content), q) {
			out = append(out, p.Clone())
		}
	}
	return out
}

// List 返回全部帖子（最新在前）
func (s *Store) List() []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Post, len(s.posts))
	for i, p := range s.posts {
		out[i] = p.Clone()
	}
	return out
}

// Snapshot 供持久化使用，与 List 相同
func (s *Store) Snapshot() []models.Post {
	return s.List()
}
