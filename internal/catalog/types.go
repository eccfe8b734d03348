package catalog

import "time"

// Review is a buyer-submitted rating and comment attached to a Product.
type Review struct {
	ReviewID  string    `dynamodbav:"review_id" json:"id"`
	UserID    string    `dynamodbav:"user_id" json:"user"`
	UserName  string    `dynamodbav:"user_name" json:"name"`
	Rating    int       `dynamodbav:"rating" json:"rating"`
	Comment   string    `dynamodbav:"comment" json:"comment"`
	CreatedAt time.Time `dynamodbav:"created_at" json:"createdAt"`
}

// Product is the item stored in the products table. Rating and NumReviews are
// derived from Reviews and never mutated directly; Version guards every
// read-modify-write so concurrent review submissions cannot lose updates.
type Product struct {
	ProductID   string   `dynamodbav:"product_id" json:"id"` // PK
	Name        string   `dynamodbav:"name" json:"name"`
	Description string   `dynamodbav:"description" json:"description"`
	Price       float64  `dynamodbav:"price" json:"price"`
	Category    string   `dynamodbav:"category" json:"category"`
	Stock       int      `dynamodbav:"stock" json:"stock"`
	Images      []string `dynamodbav:"images" json:"images"`
	Reviews     []Review `dynamodbav:"reviews,omitempty" json:"reviews"`
	Rating      float64  `dynamodbav:"rating" json:"rating"`
	NumReviews  int      `dynamodbav:"num_reviews" json:"numReviews"`

	Version   int64     `dynamodbav:"version" json:"-"`
	CreatedAt time.Time `dynamodbav:"created_at" json:"createdAt"`
	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updatedAt"`
}

// Recompute refreshes the derived rating fields from the reviews collection.
func (p *Product) Recompute() {
	p.NumReviews = len(p.Reviews)
	if p.NumReviews == 0 {
		p.Rating = 0
		return
	}
	var sum int
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	p.Rating = float64(sum) / float64(p.NumReviews)
}
