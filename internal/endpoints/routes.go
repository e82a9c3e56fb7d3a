package endpoints

import "github.com/danij/Forum-sub001/internal/httpserver"

// NewRouter registers every handler in Deps against its (verb, path
// prefix), matching the representative slice of routes the original
// forum's HTTP surface exposes (§6.2) rather than its full ~130-route
// table.
func (d *Deps) NewRouter() *httpserver.Router {
	rt := httpserver.NewRouter()

	rt.Handle("POST", "/login/", d.Login)
	rt.Handle("POST", "/logout/", d.Logout)

	rt.Handle("GET", "/users/", d.ListUsers)
	rt.Handle("GET", "/users/id/", d.GetUserByID)
	rt.Handle("GET", "/users/logo/", d.GetUserLogo)
	rt.Handle("GET", "/users/online/", d.GetOnlineUsers)
	rt.Handle("POST", "/users/", d.AddUser)
	rt.Handle("PUT", "/users/name/", d.UpdateUserName)
	rt.Handle("PUT", "/users/title/", d.UpdateUserTitle)
	rt.Handle("PUT", "/users/signature/", d.UpdateUserSignature)
	rt.Handle("PUT", "/users/logo/", d.UpdateUserLogo)
	rt.Handle("DELETE", "/users/", d.DeleteUser)

	rt.Handle("GET", "/threads/", d.ListThreads)
	rt.Handle("GET", "/threads/tag/", d.ListThreadsByTag)
	rt.Handle("GET", "/threads/id/", d.GetThreadByID)
	rt.Handle("POST", "/threads/", d.AddThread)
	rt.Handle("PUT", "/threads/name/", d.UpdateThreadName)
	rt.Handle("PUT", "/threads/pin/", d.UpdateThreadPinOrder)
	rt.Handle("PUT", "/threads/approval/", d.UpdateThreadApproval)
	rt.Handle("DELETE", "/threads/", d.DeleteThread)
	rt.Handle("POST", "/threads/subscribe/", d.SubscribeToThread)
	rt.Handle("POST", "/threads/unsubscribe/", d.UnsubscribeFromThread)
	rt.Handle("POST", "/threads/tag/", d.AttachTagToThread)
	rt.Handle("DELETE", "/threads/tag/", d.DetachTagFromThread)
	rt.Handle("POST", "/threads/merge/", d.MergeThreads)

	rt.Handle("GET", "/thread_messages/", d.ListMessagesByThread)
	rt.Handle("GET", "/thread_messages/id/", d.GetMessageByID)
	rt.Handle("POST", "/thread_messages/", d.AddMessage)
	rt.Handle("PUT", "/thread_messages/content/", d.EditMessageContent)
	rt.Handle("DELETE", "/thread_messages/", d.DeleteMessage)
	rt.Handle("POST", "/thread_messages/move/", d.MoveMessages)
	rt.Handle("POST", "/thread_messages/upvote/", d.UpVoteMessage)
	rt.Handle("POST", "/thread_messages/downvote/", d.DownVoteMessage)
	rt.Handle("POST", "/thread_messages/resetvote/", d.ResetVoteOnMessage)

	rt.Handle("GET", "/message_comments/", d.ListCommentsByMessage)
	rt.Handle("POST", "/message_comments/", d.AddComment)
	rt.Handle("PUT", "/message_comments/solved/", d.SolveComment)
	rt.Handle("DELETE", "/message_comments/", d.DeleteComment)

	rt.Handle("GET", "/tags/", d.ListTags)
	rt.Handle("GET", "/tags/id/", d.GetTagByID)
	rt.Handle("POST", "/tags/", d.AddTag)
	rt.Handle("PUT", "/tags/name/", d.UpdateTagName)
	rt.Handle("PUT", "/tags/ui/", d.UpdateTagUI)
	rt.Handle("DELETE", "/tags/", d.DeleteTag)
	rt.Handle("POST", "/tags/merge/", d.MergeTags)

	rt.Handle("GET", "/categories/root/", d.ListRootCategories)
	rt.Handle("GET", "/categories/children/", d.ListChildCategories)
	rt.Handle("GET", "/categories/id/", d.GetCategoryByID)
	rt.Handle("POST", "/categories/", d.AddCategory)
	rt.Handle("PUT", "/categories/name/", d.UpdateCategoryName)
	rt.Handle("PUT", "/categories/description/", d.UpdateCategoryDescription)
	rt.Handle("PUT", "/categories/parent/", d.ReparentCategory)
	rt.Handle("PUT", "/categories/order/", d.ReorderCategory)
	rt.Handle("POST", "/categories/tags/", d.AttachTagToCategory)
	rt.Handle("DELETE", "/categories/tags/", d.DetachTagFromCategory)
	rt.Handle("DELETE", "/categories/", d.DeleteCategory)

	rt.Handle("GET", "/privileges/required/", d.GetRequiredPrivilege)
	rt.Handle("GET", "/privileges/assigned/", d.GetAssignedPrivilege)
	rt.Handle("POST", "/privileges/assigned/", d.AdjustAssignedPrivilege)
	rt.Handle("POST", "/privileges/required/", d.AdjustRequiredPrivilege)

	rt.SetDefault(notFound)
	return rt
}

func notFound(req *httpserver.Request, resp *httpserver.Response) {
	resp.WriteStatus(404)
	resp.WriteHeader("Cache-Control", "no-cache, no-store, must-revalidate")
	resp.WriteEmptyBody()
}
